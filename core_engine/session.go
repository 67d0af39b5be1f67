package core_engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/dtaco/nand-core/core_engine/devices"
)

// CommandFlags re-exports the Register Gateway's flag bits for callers of
// SendRawCommand, so importers of this package rarely need to reach into
// core_engine/devices directly.
type CommandFlags = devices.CommandFlags

// Driver is the single exported orchestrator of the NAND core: it
// composes a Register Gateway, a Cache Controller, a Completion
// Synchronizer, the Chip Catalog lookup, the session's scratch buffers,
// and the Error Log behind one mutex — the same shape as the teacher's
// top-level orchestrator composing an IOBus and its registered devices
// (core_engine/virtual_machine.go), generalized from "one VM, many PC
// devices" to "one controller, many NAND operations".
type Driver struct {
	mu    sync.Mutex
	rf    devices.RegisterFile
	cache devices.CacheController
	sync  *devices.CompletionSync
	cfg   Config
	log   *slog.Logger

	initialized bool
	chip        ChipProfile
	errLog      ErrorLog

	idScratch    [64]byte
	readScratch  [2048 + 64]byte // page + trailing ECC; sized explicitly rather than
	// relying on adjacency with the next static buffer the way the reference
	// artefact's fixed 2048-byte _readPageBuffer implicitly did (see DESIGN.md).
	writeScratch [2304]byte
	// eccScratch holds CorrectECC's stored ECC (low half) and freshly
	// computed ECC (from offset 0x40) for any catalog chip. 128 bytes
	// covers 0x40 plus the largest ECCSize() in the catalog (64), well
	// past the largest spare region CorrectECC actually slices.
	eccScratch [128]byte
	auxScratch [19]byte

	secondaryPort chan uint32 // §3.2/§4.6 step 2: created and torn down alongside
	// the IRQ port; this driver has no reader for it (nothing in the
	// reference interface.c excerpt available here consumes it either),
	// so it is modeled but otherwise inert.
}

// NewDriver composes a Driver from a Register Gateway and a Cache
// Controller, applying any Options. rf is typically hal.OpenMMIORegisterFile
// in production and devices.NewFakeRegisterFile in tests; cache is
// typically a no-op production implementation (the x86 kernel keeps
// caches coherent automatically on many embedded ARM targets via the
// driver-level primitives this interface models) or
// devices.NewRecordingCacheController in tests.
func NewDriver(rf devices.RegisterFile, cache devices.CacheController, opts ...Option) *Driver {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Driver{
		rf:    rf,
		cache: cache,
		sync:  devices.NewCompletionSync(rf, cfg.IRQPortDepth),
		cfg:   cfg,
		log:   cfg.Logger,
	}
}

func bufAddr(p unsafe.Pointer) uintptr { return uintptr(p) }

// Initialize brings the controller up (§4.6). It is idempotent: calling it
// again after success returns nil immediately.
func (d *Driver) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	config := d.rf.Read32(devices.RegConfig)
	d.rf.Write32(devices.RegConfig, config|0x08000000)

	d.secondaryPort = make(chan uint32, 1)

	if d.cfg.IRQSource != nil {
		d.sync.StartIRQSource(d.cfg.IRQSource)
	}

	if _, err := d.sendCommandLocked(defaultResetOpcode, 0, CommandFlags{Wait: true, GenerateIRQ: true}, 0); err != nil {
		d.unwindInitLocked()
		return err
	}

	d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&d.idScratch[0])), len(d.idScratch))
	devices.WriteIfSet(d.rf, devices.RegAddr0, devices.Some(0))
	devices.WriteIfSet(d.rf, devices.RegAddr1, devices.None())
	d.setNandDataLocked(unsafe.Pointer(&d.idScratch[0]), nil)

	if _, err := d.sendCommandLocked(defaultReadIDOpcode, 1, CommandFlags{ReadData: true}, 0x40); err != nil {
		d.unwindInitLocked()
		return err
	}
	d.cache.FlushBus(devices.BridgeNAND, devices.BridgeSTARLET)

	chipID := binary.LittleEndian.Uint16(d.idScratch[0:2])
	profile, ok := lookupChip(chipID)
	if !ok {
		d.unwindInitLocked()
		d.log.Error("nand: no catalog match for chip id", "chip_id", fmt.Sprintf("0x%04X", chipID))
		return ErrHardwareSync
	}

	d.chip = profile
	d.rf.Write32(devices.RegConfig, profile.ConfigWord())
	vendor1 := d.rf.Read32(devices.RegVendor1)
	d.rf.Write32(devices.RegVendor1, (vendor1 &^ 1) | uint32(profile.ExtRegister))
	d.errLog.Reset()
	d.initialized = true

	d.log.Info("nand initialized", "chip_id", fmt.Sprintf("0x%04X", chipID), "config", fmt.Sprintf("0x%08X", profile.ConfigWord()))
	return nil
}

func (d *Driver) unwindInitLocked() {
	if d.cfg.IRQSource != nil {
		d.sync.StopIRQSource()
	}
	d.destroySecondaryPortLocked()
	config := d.rf.Read32(devices.RegConfig)
	d.rf.Write32(devices.RegConfig, config&^0x08000000)
}

func (d *Driver) destroySecondaryPortLocked() {
	if d.secondaryPort != nil {
		close(d.secondaryPort)
		d.secondaryPort = nil
	}
}

// Close stops any background IRQ source, destroys the secondary message
// port, and releases the register file.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cfg.IRQSource != nil {
		d.sync.StopIRQSource()
	}
	d.destroySecondaryPortLocked()
	return d.rf.Close()
}

// sendCommandLocked is the Command Engine (§4.3). Caller must hold d.mu.
func (d *Driver) sendCommandLocked(opcode uint8, addr5 uint8, flags CommandFlags, dataLen uint16) (int32, error) {
	if opcode == UnusedOpcode {
		return ErrInvalidArgument.Code(), ErrInvalidArgument
	}

	word := devices.PackCommand(opcode, addr5, flags, dataLen)
	d.rf.Write32(devices.RegCommand, uint32(word))

	hasError, err := d.sync.WaitForCompletion(flags.GenerateIRQ)
	if err != nil {
		d.sync.Recover(defaultResetOpcode)
		d.log.Error("nand: irq sync failure", "err", err)
		return ErrHardwareSync.Code(), ErrHardwareSync
	}
	if hasError {
		d.sync.Recover(defaultResetOpcode)
		d.log.Error("nand: command failed", "opcode", fmt.Sprintf("0x%02X", opcode))
		return ErrCommandFailed.Code(), ErrCommandFailed
	}
	return 0, nil
}

// SendRawCommand exposes the Command Engine directly (§6.2).
func (d *Driver) SendRawCommand(opcode uint8, addr5 uint8, flags CommandFlags, dataLen uint16) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendCommandLocked(opcode, addr5, flags, dataLen)
}

func (d *Driver) setNandDataLocked(dataVA, eccVA unsafe.Pointer) {
	if dataVA != nil {
		phys, err := d.rf.VirtToPhys(uintptr(dataVA))
		if err != nil {
			d.log.Error("nand: virt_to_phys failed for data pointer", "err", err)
		} else {
			d.rf.Write32(devices.RegData, uint32(phys))
		}
	}
	if eccVA != nil {
		phys, err := d.rf.VirtToPhys(uintptr(eccVA))
		if err != nil {
			d.log.Error("nand: virt_to_phys failed for ecc pointer", "err", err)
		} else {
			if phys&0x7F != 0 {
				d.log.Warn(devices.ErrMisalignedECCPointer(phys).Error())
			}
			d.rf.Write32(devices.RegECC, uint32(phys))
		}
	}
}

// SetNandData programs the data/ECC pointer registers (§4.1, §9). Passing
// nil for either pointer means "leave that register alone".
func (d *Driver) SetNandData(dataVA, eccVA unsafe.Pointer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setNandDataLocked(dataVA, eccVA)
}

// SetNandAddress programs the address registers (§4.1, §9). None()
// means "leave that register alone".
func (d *Driver) SetNandAddress(offset, page devices.OptionalU32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	devices.WriteIfSet(d.rf, devices.RegAddr0, offset)
	devices.WriteIfSet(d.rf, devices.RegAddr1, page)
}

// ReadStatus issues the chip's read-status-prefix opcode and interprets
// the status byte (§4.4.2).
func (d *Driver) ReadStatus() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotReady.Code(), ErrNotReady
	}

	d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&d.idScratch[0])), len(d.idScratch))
	d.setNandDataLocked(unsafe.Pointer(&d.idScratch[0]), nil)

	ret, err := d.sendCommandLocked(d.chip.Commands.ReadStatusPrefix, 0, CommandFlags{ReadData: true}, 0x40)
	if err != nil {
		return ret, err
	}
	d.cache.FlushBus(devices.BridgeNAND, devices.BridgeSTARLET)

	if int8(d.idScratch[0]) < 0 {
		return ErrUncorrectable.Code(), ErrUncorrectable
	}
	return 0, nil
}
