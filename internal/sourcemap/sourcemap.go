// Package sourcemap relates byte ranges of an original file to byte ranges
// of its derived counterpart. Entries may nest (a child's range sits inside
// its parent's), so reverse lookup picks the narrowest cover.
package sourcemap

import (
	"sort"
)

// Entry asserts that original[OriginalStart:OriginalEnd) corresponds to
// derived[TransformedStart:TransformedEnd). All offsets are absolute.
type Entry struct {
	OriginalStart    int `msgpack:"os"`
	OriginalEnd      int `msgpack:"oe"`
	TransformedStart int `msgpack:"ts"`
	TransformedEnd   int `msgpack:"te"`
}

// Identity reports whether the entry maps a slice onto itself length-wise.
func (e Entry) Identity() bool {
	return e.OriginalEnd-e.OriginalStart == e.TransformedEnd-e.TransformedStart
}

// TransformedLen returns the derived-side width of the entry.
func (e Entry) TransformedLen() int {
	return e.TransformedEnd - e.TransformedStart
}

// CoversTransformed reports whether the derived offset lies inside the
// entry's transformed range, end inclusive so a diagnostic at a closing
// position still resolves.
func (e Entry) CoversTransformed(off int) bool {
	return off >= e.TransformedStart && off <= e.TransformedEnd
}

// CoversOriginal reports whether the original offset lies inside the
// entry's original range, end inclusive.
func (e Entry) CoversOriginal(off int) bool {
	return off >= e.OriginalStart && off <= e.OriginalEnd
}

// OriginalLen returns the original-side width of the entry.
func (e Entry) OriginalLen() int {
	return e.OriginalEnd - e.OriginalStart
}

// Sort orders entries by TransformedStart ascending, narrowest last among
// equals, which keeps lookups deterministic.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TransformedStart != entries[j].TransformedStart {
			return entries[i].TransformedStart < entries[j].TransformedStart
		}
		return entries[i].TransformedLen() > entries[j].TransformedLen()
	})
}

// Lookup finds the entry governing a derived-file offset: the narrowest
// entry covering it, or failing that the entry with the greatest
// TransformedStart not past the offset. ok is false only when no entry
// qualifies at all.
func Lookup(entries []Entry, off int) (Entry, bool) {
	best := -1
	for i, e := range entries {
		if !e.CoversTransformed(off) {
			continue
		}
		if best < 0 || e.TransformedLen() < entries[best].TransformedLen() {
			best = i
		}
	}
	if best >= 0 {
		return entries[best], true
	}

	// No cover: fall back to the closest preceding entry.
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TransformedStart <= off {
			return entries[i], true
		}
	}
	return Entry{}, false
}

// RegionFor finds the widest entry covering an original-file offset: the
// transformed region or host slice the offset belongs to. Diagnostics want
// the narrowest cover (Lookup); completion wants the whole region.
func RegionFor(entries []Entry, off int) (Entry, bool) {
	best := -1
	for i, e := range entries {
		if !e.CoversOriginal(off) {
			continue
		}
		if best < 0 || e.OriginalLen() > entries[best].OriginalLen() {
			best = i
		}
	}
	if best >= 0 {
		return entries[best], true
	}
	return Entry{}, false
}
