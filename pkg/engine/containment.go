package engine

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/track"
)

// minWalkStep is the floor on the containment walk's advance in meters. It
// bounds the work when a candidate runs along the buffer boundary; points
// between two passing samples can exceed the buffer by at most this much.
const minWalkStep = 0.1

// evaluateContainment decides whether the entity lies entirely within the
// buffered corridor around the track and, if so, computes its arc-length
// span. Containment covers the whole geometry, segment interiors included:
// a candidate whose vertices all hug the track can still cut across a bend
// and leave the corridor mid-segment. Partially overlapping infrastructure
// is treated as not crossed by the route.
func evaluateContainment(e *Entity, trk *track.Track, bufferMeters float64) {
	for i, pt := range e.Line {
		if trk.DistanceTo(pt) > bufferMeters {
			e.exclude(brunnel.ReasonNotContained, "")
			return
		}
		if i > 0 && segmentLeavesCorridor(trk, e.Line[i-1], pt, bufferMeters) {
			e.exclude(brunnel.ReasonNotContained, "")
			return
		}
	}

	// The span runs from the projection of the first point to the
	// projection of the last. Candidate point order may oppose the track
	// direction; NewSpan normalizes.
	start := trk.ArcLengthOf(e.Line[0])
	end := trk.ArcLengthOf(e.Line[len(e.Line)-1])
	span := brunnel.NewSpan(start, end)
	e.Decision.Span = &span
}

// segmentLeavesCorridor reports whether any interior point of the segment
// a-b is farther than bufferMeters from the track. The perpendicular
// distance to the track is 1-Lipschitz along the segment: after measuring
// distance d at some point, no point within the next bufferMeters-d meters
// can violate the buffer, so the walk advances by exactly that margin.
func segmentLeavesCorridor(trk *track.Track, a, b orb.Point, bufferMeters float64) bool {
	length := planar.Distance(a, b)
	if length == 0 {
		return false
	}
	dx := b[0] - a[0]
	dy := b[1] - a[1]

	for t := 0.0; t < length; {
		pt := orb.Point{a[0] + dx*t/length, a[1] + dy*t/length}
		d := trk.DistanceTo(pt)
		if d > bufferMeters {
			return true
		}
		step := bufferMeters - d
		if step < minWalkStep {
			step = minWalkStep
		}
		t += step
	}
	return false
}
