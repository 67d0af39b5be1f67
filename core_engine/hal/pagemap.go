package hal

import (
	"encoding/binary"
	"fmt"
	"os"
)

// hostEndian is used for raw register access: on real hardware the CPU
// reads the register word in its native byte order, the same assumption
// the reference C code makes with a plain pointer cast.
var hostEndian = binary.NativeEndian

const pagemapEntrySize = 8

// virtToPhysPagemap resolves a virtual address to its backing physical
// address via /proc/self/pagemap, the userspace stand-in for the host's
// virt_to_phys primitive (§6.1). Bit 63 marks the entry present; bits 0-54
// hold the page frame number.
func virtToPhysPagemap(addr uintptr) (uintptr, error) {
	pageSize := uintptr(os.Getpagesize())
	f, err := os.Open("/proc/self/pagemap")
	if err != nil {
		return 0, fmt.Errorf("hal: open pagemap: %w", err)
	}
	defer f.Close()

	pageIndex := addr / pageSize
	buf := make([]byte, pagemapEntrySize)
	if _, err := f.ReadAt(buf, int64(pageIndex*pagemapEntrySize)); err != nil {
		return 0, fmt.Errorf("hal: read pagemap: %w", err)
	}

	entry := hostEndian.Uint64(buf)
	if entry&(1<<63) == 0 {
		return 0, fmt.Errorf("hal: virtual page 0x%x not present", addr)
	}
	pfn := entry & ((1 << 55) - 1)
	offset := addr % pageSize
	return uintptr(pfn)*pageSize + offset, nil
}
