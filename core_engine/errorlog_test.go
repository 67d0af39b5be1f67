package core_engine

import "testing"

func TestErrorLogCounters(t *testing.T) {
	var l ErrorLog
	l.Record(0, CategoryRead, 0)
	l.Record(1, CategoryRead, 0)
	l.Record(2, CategoryErase, 0)
	l.Record(3, CategoryUnknown1, 0)
	l.Record(4, CategoryUnknown3, 0)

	if l.SuccessfulReads != 2 {
		t.Fatalf("SuccessfulReads = %d, want 2", l.SuccessfulReads)
	}
	if l.SuccessfulDeletes != 1 {
		t.Fatalf("SuccessfulDeletes = %d, want 1", l.SuccessfulDeletes)
	}
	if l.Unknown2 != 1 {
		t.Fatalf("Unknown2 = %d, want 1", l.Unknown2)
	}
	if l.Unknown4 != 1 {
		t.Fatalf("Unknown4 = %d, want 1", l.Unknown4)
	}
	if len(l.Entries()) != 0 {
		t.Fatalf("Entries() on all-success log = %d entries, want 0", len(l.Entries()))
	}
}

func TestErrorLogSaturationKeepsOnly32Slots(t *testing.T) {
	var l ErrorLog
	const n = 100
	for i := uint32(0); i < n; i++ {
		l.Record(i, CategoryRead, ErrCommandFailed.Code())
	}

	entries := l.Entries()
	if len(entries) != errorLogSize-1 {
		t.Fatalf("Entries() after saturation = %d, want %d", len(entries), errorLogSize-1)
	}
	for _, e := range entries {
		if e.Return != ErrCommandFailed.Code() {
			t.Fatalf("entry %+v has unexpected Return", e)
		}
	}
}

func TestErrorLogResetClearsEverything(t *testing.T) {
	var l ErrorLog
	l.Record(0, CategoryRead, ErrCommandFailed.Code())
	l.Record(1, CategoryRead, 0)
	l.Reset()

	if got := len(l.Entries()); got != 0 {
		t.Fatalf("Entries() after Reset = %d, want 0", got)
	}
	if l.SuccessfulReads != 0 {
		t.Fatalf("SuccessfulReads after Reset = %d, want 0", l.SuccessfulReads)
	}
}
