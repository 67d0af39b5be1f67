package devices

import (
	"testing"
	"time"
)

func TestWaitForCompletionPollingFallback(t *testing.T) {
	rf := NewFakeRegisterFile()
	s := NewCompletionSync(rf, 4)

	rf.Write32(RegCommand, uint32(PackCommand(0x00, 0, CommandFlags{}, 0)))
	go func() {
		time.Sleep(time.Millisecond)
		rf.SetCompleted(false)
	}()

	hasError, err := s.WaitForCompletion(false)
	if err != nil {
		t.Fatalf("WaitForCompletion(false) err = %v, want nil", err)
	}
	if hasError {
		t.Fatal("WaitForCompletion(false) hasError = true, want false")
	}
}

func TestWaitForCompletionIRQPath(t *testing.T) {
	rf := NewFakeRegisterFile()
	s := NewCompletionSync(rf, 4)

	rf.Write32(RegCommand, uint32(PackCommand(0x00, 0, CommandFlags{GenerateIRQ: true}, 0)))
	rf.SetCompleted(true)
	s.DeliverIRQ(1)

	hasError, err := s.WaitForCompletion(true)
	if err != nil {
		t.Fatalf("WaitForCompletion(true) err = %v, want nil", err)
	}
	if !hasError {
		t.Fatal("WaitForCompletion(true) hasError = false, want true")
	}
}

func TestWaitForCompletionRejectsCorruptPayload(t *testing.T) {
	rf := NewFakeRegisterFile()
	s := NewCompletionSync(rf, 4)

	s.DeliverIRQ(0xBAD) // anything other than the sentinel 1 is a sync failure

	if _, err := s.WaitForCompletion(true); err != ErrIRQPayload {
		t.Fatalf("WaitForCompletion(true) err = %v, want ErrIRQPayload", err)
	}
}

func TestRecoverPollsThenIssuesResetBypassingIRQ(t *testing.T) {
	rf := NewFakeRegisterFile()
	s := NewCompletionSync(rf, 4)

	rf.Write32(RegCommand, uint32(PackCommand(0x00, 0, CommandFlags{}, 0)))
	go func() {
		time.Sleep(time.Millisecond)
		rf.SetCompleted(true)
	}()

	s.Recover(0xFF)

	writes := rf.Writes()
	last := writes[len(writes)-1]
	if last.Offset != RegCommand {
		t.Fatalf("Recover() last write offset = 0x%02X, want RegCommand", last.Offset)
	}
	if got := CommandWord(last.Value); !got.Execute() {
		t.Fatal("Recover() reset command did not set execute")
	}
	if last.Value&bitIRQ != 0 {
		t.Fatal("Recover() reset command requested an IRQ, want IRQ bypassed")
	}
}

type fakeIRQSource struct{ delivered chan struct{} }

func (f *fakeIRQSource) Run(stop <-chan struct{}, deliver func(payload uint32)) {
	deliver(1)
	close(f.delivered)
	<-stop
}

func TestStartStopIRQSourceLifecycle(t *testing.T) {
	rf := NewFakeRegisterFile()
	s := NewCompletionSync(rf, 4)
	src := &fakeIRQSource{delivered: make(chan struct{})}

	s.StartIRQSource(src)
	<-src.delivered

	hasError, err := s.WaitForCompletion(true)
	if err != nil || hasError {
		t.Fatalf("WaitForCompletion(true) = (%v, %v), want (false, nil)", hasError, err)
	}

	s.StopIRQSource() // must not deadlock or panic
}
