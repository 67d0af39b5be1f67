// Package devices provides the hardware-facing building blocks of the NAND
// core: the register file abstraction, the bit-packed command word, the
// completion synchronizer, and the cache/bus maintenance interface. Nothing
// in this package knows about chip profiles or page geometry; it only
// knows how to talk to the controller.
package devices

import "fmt"

// Register offsets, relative to the controller's physical base address.
// All eight registers are 32-bit and volatile; no sub-word access is ever
// issued through this package.
const (
	RegCommand = 0x00 // command/status, shared
	RegConfig  = 0x04
	RegAddr0   = 0x08
	RegAddr1   = 0x0C
	RegData    = 0x10
	RegECC     = 0x14
	RegVendor1 = 0x18
	RegVendor2 = 0x1C

	// DefaultPhysBase is the controller's fixed physical base address.
	DefaultPhysBase uintptr = 0x0D010000
)

// OptionalU32 stands in for the sentinel address/data value meaning "leave
// this register alone" (§9, sentinel -1 for register writes). A value with
// Set false means "skip"; the sentinel is never propagated as a magic
// uint32 through callers.
type OptionalU32 struct {
	Value uint32
	Set   bool
}

// Some wraps a concrete register value to write.
func Some(v uint32) OptionalU32 { return OptionalU32{Value: v, Set: true} }

// None represents "do not touch this register".
func None() OptionalU32 { return OptionalU32{} }

// RegisterFile is the typed accessor set the Register Gateway exposes over
// the eight fixed MMIO offsets. All hardware access funnels through this
// interface; the production implementation lives in package hal, backed by
// golang.org/x/sys/unix. Tests substitute FakeRegisterFile.
type RegisterFile interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)

	// VirtToPhys resolves a virtual buffer pointer to the physical address
	// the controller's data/ECC pointer registers require.
	VirtToPhys(ptr uintptr) (uintptr, error)

	Close() error
}

// WriteIfSet writes the register only when v carries a value, modeling the
// "-1 means don't touch this register" sentinel from §4.1/§9.
func WriteIfSet(rf RegisterFile, offset uint32, v OptionalU32) {
	if v.Set {
		rf.Write32(offset, v.Value)
	}
}

// ErrMisalignedECCPointer is reported (never returned as a failure) when an
// ECC/spare pointer is not aligned to 128 bytes, per §4.1's "must be
// reported but not rejected" requirement.
type ErrMisalignedECCPointer uintptr

func (e ErrMisalignedECCPointer) Error() string {
	return fmt.Sprintf("nand: spare buffer 0x%08x is not 128-byte aligned, data may be corrupted", uintptr(e))
}
