package devices

import "sync"

// FakeRegisterFile is an in-memory RegisterFile used by tests across this
// module (both this package's and core_engine's test suites exercise the
// Command Engine against it). It is exported rather than confined to a
// _test.go file because it is shared across package boundaries, the same
// role the teacher's mutex-guarded register-array devices (rtc.go) play
// for their own package's tests, generalized here to be importable.
type FakeRegisterFile struct {
	mu   sync.Mutex
	regs map[uint32]uint32

	writes     []RegisterWrite
	maxInFlight int32 // highest observed count of simultaneously-set execute bits (P2)
	executeSet  bool
}

// RegisterWrite records one Write32 call for assertions.
type RegisterWrite struct {
	Offset uint32
	Value  uint32
}

func NewFakeRegisterFile() *FakeRegisterFile {
	return &FakeRegisterFile{regs: make(map[uint32]uint32)}
}

func (f *FakeRegisterFile) Read32(offset uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[offset]
}

func (f *FakeRegisterFile) Write32(offset uint32, value uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[offset] = value
	f.writes = append(f.writes, RegisterWrite{Offset: offset, Value: value})

	if offset == RegCommand {
		executing := CommandWord(value).Execute()
		if executing && f.executeSet {
			f.maxInFlight = 2 // two execute bits observed concurrently: P2 violation
		}
		f.executeSet = executing
	}
}

func (f *FakeRegisterFile) VirtToPhys(ptr uintptr) (uintptr, error) {
	// The fake models physical memory as identity-mapped to virtual
	// addresses; real hardware resolution happens in package hal.
	return ptr, nil
}

func (f *FakeRegisterFile) Close() error { return nil }

// Writes returns a copy of every Write32 call observed, in order.
func (f *FakeRegisterFile) Writes() []RegisterWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RegisterWrite, len(f.writes))
	copy(out, f.writes)
	return out
}

// ObservedConcurrentExecute reports whether two execute bits were ever
// live on the register file at once (property P2 should always be false).
func (f *FakeRegisterFile) ObservedConcurrentExecute() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight > 1
}

// SetCompleted clears the execute bit and sets/clears has_error, simulating
// the controller finishing the outstanding command — the test's stand-in
// for hardware draining the command register.
func (f *FakeRegisterFile) SetCompleted(hasError bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := f.regs[RegCommand] &^ uint32(bitExecute)
	if hasError {
		cmd |= bitError
	} else {
		cmd &^= uint32(bitError)
	}
	f.regs[RegCommand] = cmd
	f.executeSet = false
}
