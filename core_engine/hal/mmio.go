// Package hal provides the production Register Gateway: a
// golang.org/x/sys/unix-backed memory-mapped view of the NAND controller's
// eight physical registers. It is the direct descendant of the teacher's
// raw-ioctl hardware access (core_engine/hypervisor/kvm.go's
// syscall.Syscall(SYS_IOCTL, ...) wrappers and core_engine/network's
// TUNSETIFF ioctl via golang.org/x/sys/unix), retargeted from a KVM virtual
// machine's ioctl surface onto a physical-memory mmap surface.
package hal

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// MMIORegisterFile maps a fixed-size physical window (normally
// /dev/mem at the NAND controller's base address) and exposes Read32/
// Write32 over it. Every access is volatile and 32-bit, matching §4.1's
// "no sub-word access" requirement.
type MMIORegisterFile struct {
	mu   sync.Mutex
	mem  []byte
	file *os.File
	base uintptr
}

// windowSize covers all eight registers; the mapping length is rounded up
// to a whole page by pageAlignedLength.
const windowSize = 0x20

// OpenMMIORegisterFile mmaps physBase out of path (typically "/dev/mem")
// for register access. The caller is responsible for the privilege that
// opening physical memory requires.
func OpenMMIORegisterFile(path string, physBase uintptr) (*MMIORegisterFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("hal: open %s: %w", path, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), int64(physBase), int(pageAlignedLength(windowSize)), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hal: mmap 0x%x: %w", physBase, err)
	}

	return &MMIORegisterFile{mem: mem, file: f, base: physBase}, nil
}

func pageAlignedLength(n int) int {
	pageSize := os.Getpagesize()
	if n%pageSize == 0 {
		return n
	}
	return ((n / pageSize) + 1) * pageSize
}

func (r *MMIORegisterFile) Read32(offset uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return hostEndian.Uint32(r.mem[offset : offset+4])
}

func (r *MMIORegisterFile) Write32(offset uint32, value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hostEndian.PutUint32(r.mem[offset:offset+4], value)
}

// VirtToPhys resolves a virtual buffer address to the physical address the
// controller's data/ECC pointer registers require, via /proc/self/pagemap
// — the userspace equivalent of the host's virt_to_phys primitive (§6.1).
func (r *MMIORegisterFile) VirtToPhys(ptr uintptr) (uintptr, error) {
	return virtToPhysPagemap(ptr)
}

func (r *MMIORegisterFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := unix.Munmap(r.mem)
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
