package typesystem

import "sort"

// RowEntry is one labelled field of a row.
type RowEntry struct {
	Label string
	Type  Type
}

// RowPair is a pair of entries with equal labels from two aligned rows.
type RowPair struct {
	Left  RowEntry
	Right RowEntry
}

// RowAlignment is the result of pairing two rows by label. Labels may repeat
// within a row; repeats pair up positionally in label-sorted order.
type RowAlignment struct {
	Common    []RowPair
	LeftOnly  []RowEntry
	RightOnly []RowEntry
	LeftTail  Type
	RightTail Type
}

// RowToList flattens a chain of row-cons cells into its entries (in
// representation order) and the terminal tail. Kinded wrappers along the
// spine are transparent.
func RowToList(t Type) ([]RowEntry, Type) {
	var entries []RowEntry
	for {
		switch row := UnwrapKinded(t).(type) {
		case RCons:
			entries = append(entries, RowEntry{Label: row.Label, Type: row.Head})
			t = row.Tail
		default:
			return entries, UnwrapKinded(t)
		}
	}
}

// RowFromList rebuilds a row from entries and a tail.
func RowFromList(entries []RowEntry, tail Type) Type {
	row := tail
	for i := len(entries) - 1; i >= 0; i-- {
		row = RCons{Label: entries[i].Label, Head: entries[i].Type, Tail: row}
	}
	return row
}

// SortRowEntries returns the entries stably sorted by label.
func SortRowEntries(entries []RowEntry) []RowEntry {
	sorted := make([]RowEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Label < sorted[j].Label
	})
	return sorted
}

// AlignRows pairs the entries of two rows by label, ignoring representation
// order, and leaves the unaligned leftovers and tails for the caller.
func AlignRows(l, r Type) RowAlignment {
	lEntries, lTail := RowToList(l)
	rEntries, rTail := RowToList(r)
	left := SortRowEntries(lEntries)
	right := SortRowEntries(rEntries)

	align := RowAlignment{LeftTail: lTail, RightTail: rTail}
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		switch {
		case left[i].Label == right[j].Label:
			align.Common = append(align.Common, RowPair{Left: left[i], Right: right[j]})
			i++
			j++
		case left[i].Label < right[j].Label:
			align.LeftOnly = append(align.LeftOnly, left[i])
			i++
		default:
			align.RightOnly = append(align.RightOnly, right[j])
			j++
		}
	}
	align.LeftOnly = append(align.LeftOnly, left[i:]...)
	align.RightOnly = append(align.RightOnly, right[j:]...)
	return align
}
