package extract

import (
	"sort"
	"strings"
)

const (
	// rowThreshold is the vertical proximity (in image units) within which
	// two consecutive fragments are judged to share a printed line.
	rowThreshold = 20.0

	// minRowFragments is the smallest row worth keeping; fewer fragments
	// cannot plausibly encode a labeled item line.
	minRowFragments = 3
)

// Row is an ordered left-to-right sequence of fragments on one printed line.
// Rows are transient: recomputed per extraction run, never persisted.
type Row struct {
	Fragments []Fragment
}

// Text returns the row's fragments joined in reading order.
func (r Row) Text() string {
	parts := make([]string, len(r.Fragments))
	for i, f := range r.Fragments {
		parts[i] = f.Text
	}
	return strings.Join(parts, " ")
}

// ClusterRows groups fragments into rows by vertical proximity. The input
// must already be sorted by center Y (as BuildFragments produces); grouping
// is then a single linear pass: a fragment joins the current row when its
// center Y is within rowThreshold of the previous fragment's, otherwise it
// starts a new row. Kept rows are re-sorted left-to-right by center X.
func ClusterRows(fragments []Fragment) []Row {
	if len(fragments) == 0 {
		return nil
	}

	var rows []Row
	current := []Fragment{fragments[0]}

	for _, f := range fragments[1:] {
		prev := current[len(current)-1]
		if f.CenterY-prev.CenterY < rowThreshold {
			current = append(current, f)
			continue
		}
		if row, ok := finishRow(current); ok {
			rows = append(rows, row)
		}
		current = []Fragment{f}
	}
	if row, ok := finishRow(current); ok {
		rows = append(rows, row)
	}

	return rows
}

func finishRow(fragments []Fragment) (Row, bool) {
	if len(fragments) < minRowFragments {
		return Row{}, false
	}
	ordered := make([]Fragment, len(fragments))
	copy(ordered, fragments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CenterX < ordered[j].CenterX
	})
	return Row{Fragments: ordered}, true
}
