package devices

import (
	"errors"
	"runtime"
	"sync"
)

// ErrIRQPayload is returned by WaitForCompletion when the IRQ port yields a
// payload other than the expected sentinel 1, or the port is closed —
// mapped by the caller onto the driver-level HardwareSync code.
var ErrIRQPayload = errors.New("devices: unexpected IRQ payload or closed port")

// IRQSource feeds the hardware's single NAND interrupt line into a
// CompletionSync. Run must block, delivering payloads via deliver, until
// stop is closed. The production implementation polls a UIO device file
// descriptor; tests call CompletionSync.DeliverIRQ directly instead of
// wiring a source at all.
type IRQSource interface {
	Run(stop <-chan struct{}, deliver func(payload uint32))
}

// CompletionSync owns the interrupt message port and the busy-wait
// fallback (§4.2). It converts a command submission into a blocking
// completion with an error indication, matching the shape of the
// teacher's NE2000 receive loop: one background goroutine, a stop channel,
// and a done channel, feeding a bounded buffered channel that callers
// drain synchronously.
type CompletionSync struct {
	rf      RegisterFile
	irqPort chan uint32

	mu            sync.Mutex
	sourceRunning bool
	stopSource    chan struct{}
	sourceDone    chan struct{}
}

// NewCompletionSync creates a synchronizer bound to rf, with an IRQ port of
// the given depth (the reference depth is 4).
func NewCompletionSync(rf RegisterFile, irqPortDepth int) *CompletionSync {
	return &CompletionSync{rf: rf, irqPort: make(chan uint32, irqPortDepth)}
}

// StartIRQSource launches the background goroutine that drains source and
// forwards payloads into the IRQ port, until StopIRQSource is called.
func (s *CompletionSync) StartIRQSource(source IRQSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sourceRunning {
		return
	}
	s.stopSource = make(chan struct{})
	s.sourceDone = make(chan struct{})
	s.sourceRunning = true
	go func(stop chan struct{}, done chan struct{}) {
		defer close(done)
		source.Run(stop, s.DeliverIRQ)
	}(s.stopSource, s.sourceDone)
}

// StopIRQSource tears down the background goroutine, part of the §4.6
// unwind path.
func (s *CompletionSync) StopIRQSource() {
	s.mu.Lock()
	running := s.sourceRunning
	stop, done := s.stopSource, s.sourceDone
	s.sourceRunning = false
	s.mu.Unlock()

	if !running {
		return
	}
	close(stop)
	<-done
}

// DeliverIRQ injects a payload into the IRQ port. Used directly by tests,
// and by IRQSource implementations that prefer not to own a goroutine.
func (s *CompletionSync) DeliverIRQ(payload uint32) {
	select {
	case s.irqPort <- payload:
	default:
		// The port is already at its reference depth of 4 unconsumed
		// completions, which invariant I4 (one command outstanding)
		// should make unreachable; drop rather than block the source.
	}
}

// WaitForCompletion blocks until the outstanding command drains, either by
// receiving from the IRQ port or by polling the execute bit (§4.2).
// hasError reports the command's has_error status bit, examined exactly
// once; err is non-nil only for an IRQ synchronization failure.
func (s *CompletionSync) WaitForCompletion(useIRQ bool) (hasError bool, err error) {
	if useIRQ {
		msg, ok := <-s.irqPort
		if !ok || msg != 1 {
			return false, ErrIRQPayload
		}
	} else {
		for CommandWord(s.rf.Read32(RegCommand)).Execute() {
			runtime.Gosched()
		}
	}
	hasError = CommandWord(s.rf.Read32(RegCommand)).HasError()
	return hasError, nil
}

// Recover performs the error-recovery sequence (§4.2): poll execute to
// zero, then issue a synthetic reset command directly through the
// register file, bypassing IRQ entirely.
func (s *CompletionSync) Recover(resetOpcode uint8) {
	for CommandWord(s.rf.Read32(RegCommand)).Execute() {
		runtime.Gosched()
	}
	s.rf.Write32(RegCommand, uint32(ResetCommand(resetOpcode)))
}
