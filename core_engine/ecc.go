package core_engine

import "encoding/binary"

// byteswap24 brings a 32-bit ECC word into the canonical syndrome layout:
// byte 3 into bits 0-7, byte 2 into bits 8-15, byte 1 into bits 16-23, byte
// 0 into bits 24-31.
//
// The reference artefact computes this as
//
//	x>>0x18 | (x&0xFF0000)>>0x08 | (x&0xFF00)<<0x08 | (x < 0x18)
//
// where every other term shifts a captured byte into its lane, but the
// last term is a relational comparison instead of the obviously-intended
// shift (x<<0x18) — a source bug (§9). This implementation uses the
// shifted form, which is the only one that produces a byte-swap rather
// than a stray 0-or-1 contribution.
func byteswap24(x uint32) uint32 {
	return x>>0x18 | (x&0xFF0000)>>0x08 | (x&0xFF00)<<0x08 | (x&0xFF)<<0x18
}

// CorrectECC implements §4.5: compares the hardware-computed ECC against
// the stored ECC and repairs single-bit errors in data in place.
//
// eccRegion must be at least 0x40+spare bytes, where spare = 4 <<
// (profile.Size.PageSizeShift-9) (4 to 16 bytes depending on chip); its
// low bytes (from storedOffset, within the first eccSlot bytes) hold the
// device-reported ECC and the range starting at offset 0x40 holds the
// fresh hardware-computed ECC. Callers pass the session's 128-byte ECC
// scratch buffer, sized to cover every catalog chip's spare region with
// margin. Returns nil on a clean match, ErrSoftError if a single-bit
// error was found (a data bit is flipped back when the syndrome locates one
// in data; a single-bit syndrome in the ECC itself leaves data unchanged),
// or ErrUncorrectable if a
// syndrome could not be localized (data left untouched from that word
// onward).
func CorrectECC(profile ChipProfile, data []byte, eccRegion []byte) error {
	spare := 4 << (profile.Size.PageSizeShift - 9)
	eccSlot := uint32(1) << profile.Size.EccSizeShift
	storedOffset := eccSlot - uint32(spare)

	fresh := eccRegion[0x40 : 0x40+spare]
	stored := eccRegion[storedOffset : storedOffset+uint32(spare)]

	match := true
	for i := range fresh {
		if fresh[i] != stored[i] {
			match = false
			break
		}
	}
	if match {
		return nil
	}

	var result error
	for i := uint32(0); i < uint32(spare)/4; i++ {
		eccCalc := binary.LittleEndian.Uint32(eccRegion[0x40+4*i:])
		eccRead := binary.LittleEndian.Uint32(eccRegion[storedOffset+4*i:])
		if eccCalc == eccRead {
			continue
		}

		xored := byteswap24(eccRead) ^ byteswap24(eccCalc)
		syndrome := xored & 0x0FFF0FFF

		if (syndrome-1)&syndrome == 0 {
			// Single bit set: an error within the ECC itself, not the
			// data. No change to data, but still a soft error (§9's
			// resolved post-ECC return semantics: EAGAIN even with no
			// data mutation).
			result = ErrSoftError
			continue
		}

		upper := syndrome >> 0x10
		if ((syndrome|0xFFFFF000)^upper)&0xFFFF != 0xFFFF {
			return ErrUncorrectable
		}

		location := (upper >> 3) & 0x1FF
		bit := upper & 0x07
		pos := i*0x200 + location
		data[pos] ^= 1 << bit
		result = ErrSoftError
	}

	return result
}
