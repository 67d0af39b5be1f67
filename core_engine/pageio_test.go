package core_engine

import (
	"runtime"
	"testing"

	"github.com/dtaco/nand-core/core_engine/devices"
)

// newReadyDriver builds a Driver wired to a FakeRegisterFile and
// RecordingCacheController, with the chip profile and initialized flag set
// directly rather than run through Initialize: Initialize's chip-ID
// identification step relies on the real Register Gateway DMA-ing bytes
// into idScratch, which FakeRegisterFile (no real memory transfer) cannot
// simulate. Page I/O's own behavior — the Command Engine, cache discipline,
// and error log — does not depend on how the chip profile got set, so
// exercising it this way is representative without requiring a DMA fake.
func newReadyDriver(t *testing.T, chipID uint16) (*Driver, *devices.FakeRegisterFile, *devices.RecordingCacheController) {
	t.Helper()
	profile, ok := lookupChip(chipID)
	if !ok {
		t.Fatalf("chip 0x%04X not in catalog", chipID)
	}
	rf := devices.NewFakeRegisterFile()
	cache := devices.NewRecordingCacheController()
	d := NewDriver(rf, cache, WithPolling())
	d.chip = profile
	d.initialized = true
	return d, rf, cache
}

// autoComplete runs until stop is closed, immediately clearing the execute
// bit (with no error) on every command the Command Engine submits —
// standing in for instantaneous hardware completion under WithPolling.
func autoComplete(rf *devices.FakeRegisterFile, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if devices.CommandWord(rf.Read32(devices.RegCommand)).Execute() {
			rf.SetCompleted(false)
		}
		runtime.Gosched()
	}
}

func TestReadPageWithoutECCRoundTrip(t *testing.T) {
	d, rf, cache := newReadyDriver(t, 0xECDA) // Samsung K9F2G08U0A
	stop := make(chan struct{})
	go autoComplete(rf, stop)
	defer close(stop)

	data := make([]byte, d.chip.PageSize())
	ecc := make([]byte, d.chip.ECCSize())

	ret, err := d.ReadPage(5, data, ecc, false)
	if err != nil || ret != 0 {
		t.Fatalf("ReadPage() = (%d, %v), want (0, nil)", ret, err)
	}
	if cache.BusFlushCount() != 1 {
		t.Fatalf("BusFlushCount() = %d, want 1", cache.BusFlushCount())
	}
	invalidated := cache.Invalidated()
	if len(invalidated) != 1 {
		t.Fatalf("Invalidated() = %d ranges, want 1", len(invalidated))
	}
	if want := int(d.chip.PageSize() + d.chip.ECCSize()); invalidated[0].Length != want {
		t.Fatalf("invalidate length = %d, want %d", invalidated[0].Length, want)
	}
	if d.errLog.SuccessfulReads != 1 {
		t.Fatalf("SuccessfulReads = %d, want 1", d.errLog.SuccessfulReads)
	}
	if rf.ObservedConcurrentExecute() {
		t.Fatal("observed two execute bits live at once, violates property P2")
	}
}

func TestReadPageWithECCInvalidatesThreeRanges(t *testing.T) {
	d, rf, cache := newReadyDriver(t, 0xECDA)
	stop := make(chan struct{})
	go autoComplete(rf, stop)
	defer close(stop)

	data := make([]byte, d.chip.PageSize())

	ret, err := d.ReadPage(0, data, nil, true)
	if err != nil || ret != 0 {
		t.Fatalf("ReadPage() with ECC = (%d, %v), want (0, nil)", ret, err)
	}
	// data buffer, ECC scratch, and the auxiliary spare region.
	if got := len(cache.Invalidated()); got != 3 {
		t.Fatalf("Invalidated() = %d ranges, want 3", got)
	}
}

func TestReadPageRejectsOutOfRangePage(t *testing.T) {
	d, _, _ := newReadyDriver(t, 0xECDA)
	data := make([]byte, d.chip.PageSize())

	ret, err := d.ReadPage(d.chip.MaxPage(), data, nil, false)
	if err != ErrInvalidArgument {
		t.Fatalf("ReadPage() past MaxPage = %v, want ErrInvalidArgument", err)
	}
	if ret != ErrInvalidArgument.Code() {
		t.Fatalf("ReadPage() ret = %d, want %d", ret, ErrInvalidArgument.Code())
	}
	if len(d.errLog.Entries()) != 1 {
		t.Fatalf("Entries() = %d, want 1 (failures are logged too)", len(d.errLog.Entries()))
	}
}

func TestReadPageRejectsBeforeInitialize(t *testing.T) {
	rf := devices.NewFakeRegisterFile()
	cache := devices.NewRecordingCacheController()
	d := NewDriver(rf, cache, WithPolling())
	d.chip = chipCatalog[0]

	data := make([]byte, d.chip.PageSize())
	if _, err := d.ReadPage(0, data, nil, false); err != ErrNotReady {
		t.Fatalf("ReadPage() before Initialize = %v, want ErrNotReady", err)
	}
}

func TestWritePageUsesFlushNotInvalidate(t *testing.T) {
	d, rf, cache := newReadyDriver(t, 0xECDA)
	stop := make(chan struct{})
	go autoComplete(rf, stop)
	defer close(stop)

	data := make([]byte, d.chip.PageSize())
	ret, err := d.WritePage(3, data, nil)
	if err != nil || ret != 0 {
		t.Fatalf("WritePage() = (%d, %v), want (0, nil)", ret, err)
	}
	if len(cache.Invalidated()) != 0 {
		t.Fatalf("WritePage() invalidated %d ranges, want 0", len(cache.Invalidated()))
	}
	if len(cache.Flushed()) != 1 {
		t.Fatalf("WritePage() flushed %d ranges, want 1", len(cache.Flushed()))
	}
	if d.errLog.Unknown4 != 1 {
		t.Fatalf("Unknown4 = %d, want 1 (write has no dedicated counter)", d.errLog.Unknown4)
	}
}

func TestEraseBlockLogsUnderEraseCategory(t *testing.T) {
	d, rf, cache := newReadyDriver(t, 0xECDA)
	stop := make(chan struct{})
	go autoComplete(rf, stop)
	defer close(stop)

	ret, err := d.EraseBlock(7)
	if err != nil || ret != 0 {
		t.Fatalf("EraseBlock() = (%d, %v), want (0, nil)", ret, err)
	}
	if d.errLog.SuccessfulDeletes != 1 {
		t.Fatalf("SuccessfulDeletes = %d, want 1", d.errLog.SuccessfulDeletes)
	}
	if cache.BusFlushCount() != 1 {
		t.Fatalf("BusFlushCount() = %d, want 1", cache.BusFlushCount())
	}
}

func TestSendRawCommandRejectsUnusedOpcode(t *testing.T) {
	d, rf, _ := newReadyDriver(t, 0xECDA)
	stop := make(chan struct{})
	go autoComplete(rf, stop)
	defer close(stop)

	ret, err := d.SendRawCommand(UnusedOpcode, 0, CommandFlags{}, 0)
	if err != ErrInvalidArgument || ret != ErrInvalidArgument.Code() {
		t.Fatalf("SendRawCommand(UnusedOpcode) = (%d, %v), want (%d, ErrInvalidArgument)", ret, err, ErrInvalidArgument.Code())
	}
	if len(rf.Writes()) != 0 {
		t.Fatalf("SendRawCommand(UnusedOpcode) touched the register file: %d writes", len(rf.Writes()))
	}
}
