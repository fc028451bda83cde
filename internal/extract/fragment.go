package extract

import (
	"fmt"
	"sort"

	"github.com/fleetops/receipt-ocr-service/internal/ocr"
)

// noiseFloor drops fragments the engine itself barely believes in.
const noiseFloor = 0.2

// Fragment is one OCR text span with derived geometry. Immutable once built.
type Fragment struct {
	Text       string
	Confidence float64
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
}

// BuildFragments normalizes raw OCR results into fragments: low-confidence
// noise is discarded, center/width/height are derived from the bounding box
// corners, and the result is sorted top-to-bottom by center Y so downstream
// consumers see global reading order.
//
// The only error case is a malformed result set (a bounding box without four
// [x,y] corners); that is an input fault, not a domain failure.
func BuildFragments(results []ocr.Result) ([]Fragment, error) {
	fragments := make([]Fragment, 0, len(results))

	for i, r := range results {
		if r.Confidence <= noiseFloor {
			continue
		}
		if len(r.BBox) != 4 {
			return nil, fmt.Errorf("malformed OCR result %d: bounding box has %d points, want 4", i, len(r.BBox))
		}

		var sumX, sumY, minX, maxX, minY, maxY float64
		for j, point := range r.BBox {
			if len(point) < 2 {
				return nil, fmt.Errorf("malformed OCR result %d: bounding box point %d has %d coordinates", i, j, len(point))
			}
			x, y := point[0], point[1]
			sumX += x
			sumY += y
			if j == 0 || x < minX {
				minX = x
			}
			if j == 0 || x > maxX {
				maxX = x
			}
			if j == 0 || y < minY {
				minY = y
			}
			if j == 0 || y > maxY {
				maxY = y
			}
		}

		fragments = append(fragments, Fragment{
			Text:       r.Text,
			Confidence: r.Confidence,
			CenterX:    sumX / 4,
			CenterY:    sumY / 4,
			Width:      maxX - minX,
			Height:     maxY - minY,
		})
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].CenterY < fragments[j].CenterY
	})

	return fragments, nil
}

// pageExtent returns the vertical range spanned by the fragment centers.
func pageExtent(fragments []Fragment) (top, bottom float64, ok bool) {
	if len(fragments) == 0 {
		return 0, 0, false
	}
	top, bottom = fragments[0].CenterY, fragments[0].CenterY
	for _, f := range fragments[1:] {
		if f.CenterY < top {
			top = f.CenterY
		}
		if f.CenterY > bottom {
			bottom = f.CenterY
		}
	}
	return top, bottom, true
}

// pageBand returns the fragments whose center Y falls within the given
// relative band of the page, where 0 is the topmost fragment center and 1
// the bottommost. Input order is preserved.
func pageBand(fragments []Fragment, from, to float64) []Fragment {
	top, bottom, ok := pageExtent(fragments)
	if !ok {
		return nil
	}

	height := bottom - top
	if height == 0 {
		// Single-line page: everything is in every band.
		return fragments
	}

	var band []Fragment
	for _, f := range fragments {
		rel := (f.CenterY - top) / height
		if rel >= from && rel <= to {
			band = append(band, f)
		}
	}
	return band
}
