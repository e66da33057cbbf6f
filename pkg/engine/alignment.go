package engine

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/track"
)

// evaluateAlignment checks whether the entity runs parallel to the track
// anywhere over its span. Every (candidate segment, track segment) pair with
// the track segment inside the span is tested with a normalized dot product;
// direction is ignored, so a candidate digitized against the track direction
// still aligns. One aligned pair keeps the entity; the entity is excluded as
// misaligned only when no pair aligns.
func evaluateAlignment(e *Entity, trk *track.Track, toleranceDeg float64) {
	span := e.Decision.Span
	if span == nil {
		return
	}
	cosTol := math.Cos(toleranceDeg * math.Pi / 180)

	startM := span.StartKm * 1000
	endM := span.EndKm * 1000

	for ti := 0; ti < trk.SegmentCount(); ti++ {
		segStart, segEnd := trk.SegmentSpan(ti)
		if segEnd < startM || segStart > endM {
			continue
		}
		ta, tb := trk.Segment(ti)
		tux, tuy, ok := unitVector(ta, tb)
		if !ok {
			continue
		}

		for ci := 0; ci < len(e.Line)-1; ci++ {
			cux, cuy, ok := unitVector(e.Line[ci], e.Line[ci+1])
			if !ok {
				continue
			}
			if math.Abs(tux*cux+tuy*cuy) >= cosTol {
				e.include()
				return
			}
		}
	}

	e.exclude(brunnel.ReasonMisaligned, "")
}

// unitVector returns the normalized direction of the segment a->b. Zero
// length segments report ok=false.
func unitVector(a, b orb.Point) (x, y float64, ok bool) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return 0, 0, false
	}
	return dx / n, dy / n, true
}
