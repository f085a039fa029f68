package sourcemap

import (
	"testing"
)

func TestSortByTransformedStart(t *testing.T) {
	entries := []Entry{
		{TransformedStart: 10, TransformedEnd: 20},
		{TransformedStart: 0, TransformedEnd: 30},
		{TransformedStart: 10, TransformedEnd: 12},
	}
	Sort(entries)
	if entries[0].TransformedStart != 0 {
		t.Fatalf("entries = %v", entries)
	}
	// Equal starts: wider first.
	if entries[1].TransformedLen() != 10 || entries[2].TransformedLen() != 2 {
		t.Fatalf("entries = %v", entries)
	}
}

func TestLookupPrefersNarrowestCover(t *testing.T) {
	entries := []Entry{
		{OriginalStart: 0, OriginalEnd: 30, TransformedStart: 0, TransformedEnd: 30},
		{OriginalStart: 5, OriginalEnd: 8, TransformedStart: 10, TransformedEnd: 13},
	}
	e, ok := Lookup(entries, 11)
	if !ok || e.OriginalStart != 5 {
		t.Fatalf("lookup = %+v, %v", e, ok)
	}
}

func TestLookupEndInclusive(t *testing.T) {
	entries := []Entry{
		{OriginalStart: 2, OriginalEnd: 4, TransformedStart: 5, TransformedEnd: 7},
	}
	if _, ok := Lookup(entries, 7); !ok {
		t.Fatal("offset at entry end should resolve")
	}
}

func TestLookupFallsBackToPreceding(t *testing.T) {
	entries := []Entry{
		{OriginalStart: 0, OriginalEnd: 2, TransformedStart: 0, TransformedEnd: 2},
		{OriginalStart: 5, OriginalEnd: 7, TransformedStart: 10, TransformedEnd: 12},
	}
	e, ok := Lookup(entries, 50)
	if !ok || e.TransformedStart != 10 {
		t.Fatalf("lookup = %+v, %v", e, ok)
	}
}

func TestLookupNothingBefore(t *testing.T) {
	entries := []Entry{
		{TransformedStart: 10, TransformedEnd: 12},
	}
	if _, ok := Lookup(entries, 5); ok {
		t.Fatal("expected no entry before any mapping")
	}
}

func TestRegionForPrefersWidestCover(t *testing.T) {
	entries := []Entry{
		{OriginalStart: 0, OriginalEnd: 10, TransformedStart: 0, TransformedEnd: 10},
		{OriginalStart: 10, OriginalEnd: 30, TransformedStart: 10, TransformedEnd: 80},
		{OriginalStart: 14, OriginalEnd: 16, TransformedStart: 20, TransformedEnd: 25},
	}
	e, ok := RegionFor(entries, 15)
	if !ok || e.OriginalStart != 10 || e.OriginalEnd != 30 {
		t.Fatalf("region = %+v, %v", e, ok)
	}
	e, ok = RegionFor(entries, 3)
	if !ok || e.OriginalEnd != 10 {
		t.Fatalf("region = %+v, %v", e, ok)
	}
	if _, ok := RegionFor(entries, 99); ok {
		t.Fatal("expected no cover past all entries")
	}
}

func TestIdentity(t *testing.T) {
	if !(Entry{OriginalStart: 3, OriginalEnd: 8, TransformedStart: 10, TransformedEnd: 15}).Identity() {
		t.Fatal("equal widths should be identity")
	}
	if (Entry{OriginalStart: 3, OriginalEnd: 8, TransformedStart: 10, TransformedEnd: 20}).Identity() {
		t.Fatal("unequal widths are not identity")
	}
}
