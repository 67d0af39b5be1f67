package core_engine

import "testing"

func TestLookupChipAllCatalogEntries(t *testing.T) {
	for _, want := range chipCatalog {
		got, ok := lookupChip(want.ChipID)
		if !ok {
			t.Fatalf("lookupChip(0x%04X): not found", want.ChipID)
		}
		if got != want {
			t.Fatalf("lookupChip(0x%04X): got %+v, want %+v", want.ChipID, got, want)
		}
	}
}

func TestLookupChipUnknownID(t *testing.T) {
	if _, ok := lookupChip(0x0000); ok {
		t.Fatal("lookupChip(0x0000): expected no match")
	}
}

func TestConfigWordSamsungK9F2G08U0A(t *testing.T) {
	p, ok := lookupChip(0xECDA)
	if !ok {
		t.Fatal("Samsung K9F2G08U0A not in catalog")
	}
	const want = 0xCB3E0E7F
	if got := p.ConfigWord(); got != want {
		t.Fatalf("ConfigWord() = 0x%08X, want 0x%08X", got, want)
	}
}

func TestMaxPageAndPageSize(t *testing.T) {
	p, ok := lookupChip(0xECDA) // Samsung K9F2G08U0A: 2Gb, 2KB page
	if !ok {
		t.Fatal("chip not found")
	}
	if got, want := p.PageSize(), uint32(2048); got != want {
		t.Fatalf("PageSize() = %d, want %d", got, want)
	}
	if got, want := p.MaxPage(), uint32(1)<<(0x1C-0x0B); got != want {
		t.Fatalf("MaxPage() = %d, want %d", got, want)
	}
}
