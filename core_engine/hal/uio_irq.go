package hal

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/dtaco/nand-core/core_engine/devices"
)

// UIOIRQSource delivers the hardware's NAND interrupt (source 1, §6.4) by
// blocking in unix.Poll on a Linux UIO device file descriptor — the
// idiomatic userspace equivalent of register_irq/receive_message for a
// memory-mapped device with no in-kernel driver. It implements
// devices.IRQSource so a CompletionSync can drive it exactly like the
// teacher's NE2000 drove its injected HostNetInterface in a background
// goroutine.
type UIOIRQSource struct {
	file *os.File
}

// OpenUIOIRQSource opens a UIO device node (e.g. "/dev/uio0") exposing the
// NAND interrupt line.
func OpenUIOIRQSource(path string) (*UIOIRQSource, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &UIOIRQSource{file: f}, nil
}

// Run blocks on the UIO file descriptor until an interrupt arrives or stop
// is closed, delivering the reference sentinel payload 1 on each
// interrupt — UIO's read() protocol reports an interrupt count, but this
// driver only cares that one occurred.
func (u *UIOIRQSource) Run(stop <-chan struct{}, deliver func(payload uint32)) {
	fd := int(u.file.Fd())
	pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := unix.Poll(pollFds, 250)
		if err != nil || n == 0 {
			continue
		}

		var count [4]byte
		if _, err := u.file.Read(count[:]); err != nil {
			continue
		}
		deliver(1)
	}
}

func (u *UIOIRQSource) Close() error { return u.file.Close() }

var _ devices.IRQSource = (*UIOIRQSource)(nil)
