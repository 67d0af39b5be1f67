package core_engine

// UnusedOpcode is the in-band sentinel meaning "this chip does not define
// this command"; issuing it must fail fast without touching the register
// file (§4.3, P4).
const UnusedOpcode uint8 = 0xFE

const (
	defaultResetOpcode  uint8 = 0xFF
	defaultReadIDOpcode uint8 = 0x90
)

// CommandSet is the 22-opcode-byte table a chip profile carries. Every
// field maps one-to-one onto the reference artefact's NandCommandInformation
// layout; fields this driver never issues (the "Unknown*" slots) are kept
// for wire-layout parity with the catalog data and are never read.
type CommandSet struct {
	Reset                  uint8
	ReadPrefix             uint8
	Read                   uint8
	ReadAlternative        uint8
	ReadPost               uint8
	ReadCopyBack           uint8
	Unknown                uint8
	WritePrefix            uint8
	Write                  uint8
	WriteCopyBack          uint8
	Unknown2               uint8
	WriteUnknown           uint8
	WriteCopyBackPrefix    uint8
	ErasePrefix            uint8
	Unknown3               uint8
	Erase                  uint8
	RandomDataOutputPrefix uint8
	RandomDataOutput       uint8
	RandomDataInput        uint8
	ReadStatusPrefix       uint8
	Unknown4               uint8
	InputAddress           uint8
}

// SizeInfo carries the three geometry log2-shifts a chip profile exposes.
type SizeInfo struct {
	NandSizeShift uint32
	PageSizeShift uint32
	EccSizeShift  uint32
}

// ChipProfile is one immutable entry of the Chip Catalog (§3.1). Once
// copied into a Driver's session state it is never mutated (invariant I3).
type ChipProfile struct {
	ChipID       uint16
	Commands     CommandSet
	Size         SizeInfo
	ChipType     uint8
	Attribute1   uint8
	Attribute2   uint8
	Attribute3   uint8
	Attribute4   uint8
	ExtRegister  uint8 // merged into vendor-1's low bit on init
}

// ConfigWord computes the controller configuration register value the
// reference formula in §3.1 specifies for this profile.
func (p ChipProfile) ConfigWord() uint32 {
	return 0x88000000 |
		uint32(p.ChipType)&0xF<<28 |
		uint32(p.Attribute1)<<24 |
		uint32(p.Attribute2)<<16 |
		uint32(p.Attribute3)<<8 |
		uint32(p.Attribute4)
}

// MaxPage returns the one-past-last valid page number for this profile's
// geometry.
func (p ChipProfile) MaxPage() uint32 {
	return 1 << (p.Size.NandSizeShift - p.Size.PageSizeShift)
}

// PageSize returns the profile's page size in bytes.
func (p ChipProfile) PageSize() uint32 { return 1 << p.Size.PageSizeShift }

// ECCSize returns the profile's ECC/spare region size in bytes.
func (p ChipProfile) ECCSize() uint32 { return 1 << p.Size.EccSizeShift }

// chipCatalog is the ten-entry Chip Catalog, reproduced verbatim (byte for
// byte) from the reference profile table. This is an exact-match data set:
// every opcode, shift, and attribute byte here must match the reference
// artefact, not merely be plausible.
var chipCatalog = [10]ChipProfile{
	{ // Hynix HY27US0812(1/2)B
		ChipID: 0xAD76,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0xFE, Read: 0x00, ReadAlternative: 0x01,
			ReadPost: 0x50, ReadCopyBack: 0xFE, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0xFE, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x8A,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0xFE, RandomDataOutput: 0xFE, RandomDataInput: 0xFE,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x1D,
		},
		Size:       SizeInfo{NandSizeShift: 0x1A, PageSizeShift: 0x09, EccSizeShift: 0x04},
		ChipType:   0x04, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Hynix HY27UF081G2A
		ChipID: 0xADF1,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0x35, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x85,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0x85,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x0F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1B, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x03, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Hynix HY27UF084G2M / HY27UG084G2M
		ChipID: 0xADDC,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0x35, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x85,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0x85,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x1F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1D, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x07, Attribute1: 0x04, Attribute2: 0x3f, Attribute3: 0x3f, Attribute4: 0xff,
		ExtRegister: 0x00,
	},
	{ // Samsung K9F1208U0C
		ChipID: 0xEC76,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0xFE, Read: 0x00, ReadAlternative: 0x01,
			ReadPost: 0x50, ReadCopyBack: 0xFE, Unknown: 0x03,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0x11,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x8A,
			ErasePrefix: 0x60, Unknown3: 0x60, Erase: 0xD0,
			RandomDataOutputPrefix: 0xFE, RandomDataOutput: 0xFE, RandomDataInput: 0xFE,
			ReadStatusPrefix: 0x70, Unknown4: 0x71, InputAddress: 0x1D,
		},
		Size:       SizeInfo{NandSizeShift: 0x1A, PageSizeShift: 0x09, EccSizeShift: 0x04},
		ChipType:   0x04, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Samsung K9F1G08U0B
		ChipID: 0xECF1,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0x35, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x85,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0x85,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x0F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1B, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x03, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x3e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Samsung K9F2G08U0A
		ChipID: 0xECDA,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0x35, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x85,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0x85,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x1F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1C, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x04, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Samsung K9F4G08U0A
		ChipID: 0xECDC,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0x35, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0x10, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0x85,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0x85,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x1F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1D, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x07, Attribute1: 0x04, Attribute2: 0x3f, Attribute3: 0x3f, Attribute4: 0xff,
		ExtRegister: 0x00,
	},
	{ // Toshiba TC58NVG0S3AFT05 / TC58NVG0S3ATG05 / TC58NVG0S3BFT00
		ChipID: 0x9876,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0xFE, Read: 0x00, ReadAlternative: 0x01,
			ReadPost: 0x50, ReadCopyBack: 0xFE, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0xFE, Unknown2: 0x11,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0xFE,
			ErasePrefix: 0x60, Unknown3: 0x60, Erase: 0xD0,
			RandomDataOutputPrefix: 0xFE, RandomDataOutput: 0xFE, RandomDataInput: 0xFE,
			ReadStatusPrefix: 0x70, Unknown4: 0x71, InputAddress: 0x1D,
		},
		Size:       SizeInfo{NandSizeShift: 0x1A, PageSizeShift: 0x09, EccSizeShift: 0x04},
		ChipType:   0x04, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Toshiba TC58NVG0S3AFT05 / TC58NVG0S3ATG05 / TC58NVG0S3BFT00 (variant)
		ChipID: 0x98F1,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0xFE, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0xFE, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0xFE,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0xFE,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x0F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1B, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x03, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
	{ // Toshiba TC58NVG1D4BTG00
		ChipID: 0x98DA,
		Commands: CommandSet{
			Reset: 0xFF, ReadPrefix: 0x00, Read: 0x30, ReadAlternative: 0xFE,
			ReadPost: 0xFE, ReadCopyBack: 0xFE, Unknown: 0xFE,
			WritePrefix: 0x80, Write: 0x10, WriteCopyBack: 0xFE, Unknown2: 0xFE,
			WriteUnknown: 0xFE, WriteCopyBackPrefix: 0xFE,
			ErasePrefix: 0x60, Unknown3: 0xFE, Erase: 0xD0,
			RandomDataOutputPrefix: 0x05, RandomDataOutput: 0xE0, RandomDataInput: 0xFE,
			ReadStatusPrefix: 0x70, Unknown4: 0xFE, InputAddress: 0x1F,
		},
		Size:       SizeInfo{NandSizeShift: 0x1C, PageSizeShift: 0x0B, EccSizeShift: 0x06},
		ChipType:   0x04, Attribute1: 0x03, Attribute2: 0x3e, Attribute3: 0x0e, Attribute4: 0x7f,
		ExtRegister: 0x01,
	},
}

// lookupChip performs the linear chip-ID search §4.6 step 7 specifies.
func lookupChip(chipID uint16) (ChipProfile, bool) {
	for _, p := range chipCatalog {
		if p.ChipID == chipID {
			return p, true
		}
	}
	return ChipProfile{}, false
}
