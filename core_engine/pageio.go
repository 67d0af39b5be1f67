package core_engine

import (
	"unsafe"

	"github.com/dtaco/nand-core/core_engine/devices"
)

// retCodeOf extracts the driver error code from a possibly-nil error,
// defaulting to 0 (success).
func retCodeOf(err error) int32 {
	if err == nil {
		return 0
	}
	if de, ok := err.(DriverError); ok {
		return de.Code()
	}
	return ErrCommandFailed.Code()
}

// logShift is the page-to-log-page divisor §4.7 applies before recording:
// the log tracks blocks, not individual pages, at a fixed 16KiB granularity.
func (d *Driver) logShift() uint32 {
	return 0x0E - d.chip.Size.PageSizeShift
}

// ReadPage implements §4.4.1. dataOut must be at least PageSize() bytes.
// If eccOut is non-nil it receives the page's ECC/spare bytes (ECCSize()
// bytes); if withECC is true the hardware computes ECC over the transfer
// and CorrectECC repairs single-bit errors in dataOut in place.
func (d *Driver) ReadPage(pageNumber uint32, dataOut []byte, eccOut []byte, withECC bool) (retCode int32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		d.errLog.Record(pageNumber>>d.logShift(), CategoryRead, retCode)
	}()

	if dataOut == nil || pageNumber >= d.chip.MaxPage() {
		return ErrInvalidArgument.Code(), ErrInvalidArgument
	}
	if !d.initialized {
		return ErrNotReady.Code(), ErrNotReady
	}

	devices.WriteIfSet(d.rf, devices.RegAddr0, devices.Some(0))
	devices.WriteIfSet(d.rf, devices.RegAddr1, devices.Some(pageNumber))

	readAddress := uint8(0)
	if d.chip.Commands.ReadPrefix == UnusedOpcode {
		readAddress = d.chip.Commands.InputAddress
	} else if ret, perr := d.sendCommandLocked(d.chip.Commands.ReadPrefix, d.chip.Commands.InputAddress, CommandFlags{}, 0); perr != nil {
		return ret, perr
	}

	pageSize := d.chip.PageSize()
	eccSize := d.chip.ECCSize()

	if !withECC {
		d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&d.readScratch[0])), int(pageSize+eccSize))
		d.setNandDataLocked(unsafe.Pointer(&d.readScratch[0]), nil)
	} else {
		spare := 4 << (d.chip.Size.PageSizeShift - 9)
		d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&dataOut[0])), int(pageSize))
		d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&d.eccScratch[0])), len(d.eccScratch))
		d.cache.InvalidateRange(bufAddr(unsafe.Pointer(&d.auxScratch[0])), spare)
		d.setNandDataLocked(unsafe.Pointer(&dataOut[0]), unsafe.Pointer(&d.eccScratch[0]))
	}

	flags := CommandFlags{GenerateIRQ: d.cfg.PreferIRQ, Wait: true, ReadData: true}
	if withECC {
		flags.CalculateECC = true
	}
	if ret, cerr := d.sendCommandLocked(d.chip.Commands.Read, readAddress, flags, uint16(pageSize)); cerr != nil {
		return ret, cerr
	}
	d.cache.FlushBus(devices.BridgeNAND, devices.BridgeSTARLET)

	if !withECC {
		if eccOut != nil {
			copy(eccOut, d.readScratch[pageSize:pageSize+eccSize])
		}
		copy(dataOut, d.readScratch[:pageSize])
		return 0, nil
	}

	if eccOut != nil {
		copy(eccOut, d.eccScratch[:eccSize])
	}
	if cerr := CorrectECC(d.chip, dataOut, d.eccScratch[:]); cerr != nil {
		return retCodeOf(cerr), cerr
	}
	return 0, nil
}

// WritePage implements §4.4.3's write path: write-prefix (if defined),
// then the data-bearing write command. data must be PageSize() bytes; ecc,
// if non-nil, is staged into the trailing spare region of the same buffer.
func (d *Driver) WritePage(pageNumber uint32, data []byte, ecc []byte) (retCode int32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		d.errLog.Record(pageNumber>>d.logShift(), CategoryUnknown3, retCode)
	}()

	if data == nil || pageNumber >= d.chip.MaxPage() {
		return ErrInvalidArgument.Code(), ErrInvalidArgument
	}
	if !d.initialized {
		return ErrNotReady.Code(), ErrNotReady
	}

	devices.WriteIfSet(d.rf, devices.RegAddr0, devices.Some(0))
	devices.WriteIfSet(d.rf, devices.RegAddr1, devices.Some(pageNumber))

	writeAddress := uint8(0)
	if d.chip.Commands.WritePrefix == UnusedOpcode {
		writeAddress = d.chip.Commands.InputAddress
	} else if ret, perr := d.sendCommandLocked(d.chip.Commands.WritePrefix, d.chip.Commands.InputAddress, CommandFlags{}, 0); perr != nil {
		return ret, perr
	}

	pageSize := d.chip.PageSize()
	eccSize := d.chip.ECCSize()

	copy(d.writeScratch[:pageSize], data)
	if ecc != nil {
		copy(d.writeScratch[pageSize:pageSize+eccSize], ecc)
	}
	// CPU->device direction: flush rather than invalidate, the one call in
	// Page I/O that goes the opposite way (§4.4.3).
	d.cache.FlushRange(bufAddr(unsafe.Pointer(&d.writeScratch[0])), int(pageSize+eccSize))
	d.setNandDataLocked(unsafe.Pointer(&d.writeScratch[0]), nil)

	flags := CommandFlags{GenerateIRQ: d.cfg.PreferIRQ, Wait: true, WriteData: true}
	if ret, cerr := d.sendCommandLocked(d.chip.Commands.Write, writeAddress, flags, uint16(pageSize)); cerr != nil {
		return ret, cerr
	}
	d.cache.FlushBus(devices.BridgeNAND, devices.BridgeSTARLET)

	return 0, nil
}

// EraseBlock implements §4.4.3's erase path: erase-prefix (if defined),
// then the erase command. pageNumber is any page within the target block.
func (d *Driver) EraseBlock(pageNumber uint32) (retCode int32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	defer func() {
		d.errLog.Record(pageNumber>>d.logShift(), CategoryErase, retCode)
	}()

	if pageNumber >= d.chip.MaxPage() {
		return ErrInvalidArgument.Code(), ErrInvalidArgument
	}
	if !d.initialized {
		return ErrNotReady.Code(), ErrNotReady
	}

	devices.WriteIfSet(d.rf, devices.RegAddr0, devices.Some(0))
	devices.WriteIfSet(d.rf, devices.RegAddr1, devices.Some(pageNumber))

	eraseAddress := uint8(0)
	if d.chip.Commands.ErasePrefix == UnusedOpcode {
		eraseAddress = d.chip.Commands.InputAddress
	} else if ret, perr := d.sendCommandLocked(d.chip.Commands.ErasePrefix, d.chip.Commands.InputAddress, CommandFlags{}, 0); perr != nil {
		return ret, perr
	}

	flags := CommandFlags{GenerateIRQ: d.cfg.PreferIRQ, Wait: true}
	if ret, cerr := d.sendCommandLocked(d.chip.Commands.Erase, eraseAddress, flags, 0); cerr != nil {
		return ret, cerr
	}
	d.cache.FlushBus(devices.BridgeNAND, devices.BridgeSTARLET)

	return 0, nil
}
