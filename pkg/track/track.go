// Package track models a GPS track as an ordered, immutable sequence of
// projected points with precomputed cumulative arc length. It answers
// nearest-point and arc-length queries for the decision engine and produces
// the buffered corridor polygon used for containment rendering.
package track

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/trailscan/brunnels/pkg/core"
	"github.com/trailscan/brunnels/pkg/geo"
)

// Track is an ordered sequence of at least two track points. All planar
// coordinates are meters in the track's own local projection.
type Track struct {
	locations []geo.Location
	proj      *geo.Projector
	line      orb.LineString
	cum       []float64 // cumulative arc length in meters, cum[0] == 0
	bounds    geo.BoundingBox
}

// New builds a Track from a WGS84 location sequence. It validates the
// sequence against the projection limits and projects every point into the
// local planar frame. Fewer than two points is a construction error.
func New(locs []geo.Location) (*Track, error) {
	if len(locs) < 2 {
		return nil, core.Errorf(core.ErrInvalidTrack, "track requires at least 2 points, got %d", len(locs)).
			WithGuidance("Check that the GPX file contains a recorded track, not just waypoints")
	}
	if err := geo.ValidateTrack(locs); err != nil {
		return nil, err
	}
	bounds, err := geo.BoundsOf(locs)
	if err != nil {
		return nil, err
	}
	proj, err := geo.NewProjector(bounds)
	if err != nil {
		return nil, err
	}

	line := proj.ProjectAll(locs)
	cum := make([]float64, len(line))
	for i := 1; i < len(line); i++ {
		cum[i] = cum[i-1] + planar.Distance(line[i-1], line[i])
	}

	return &Track{
		locations: append([]geo.Location(nil), locs...),
		proj:      proj,
		line:      line,
		cum:       cum,
		bounds:    bounds,
	}, nil
}

// Len returns the number of track points.
func (t *Track) Len() int { return len(t.line) }

// Locations returns the WGS84 points the track was built from.
func (t *Track) Locations() []geo.Location { return t.locations }

// Projector returns the track's local planar projection. Candidate
// geometries must be projected through it before any query.
func (t *Track) Projector() *geo.Projector { return t.proj }

// Line returns the projected planar polyline.
func (t *Track) Line() orb.LineString { return t.line }

// Length returns the total arc length of the track in meters.
func (t *Track) Length() float64 { return t.cum[len(t.cum)-1] }

// Bounds returns the geographic bounding box, grown by the given buffer in
// meters.
func (t *Track) Bounds(bufferMeters float64) geo.BoundingBox {
	if bufferMeters == 0 {
		return t.bounds
	}
	return t.bounds.Buffered(bufferMeters)
}

// SegmentCount returns the number of polyline segments.
func (t *Track) SegmentCount() int { return len(t.line) - 1 }

// Segment returns the endpoints of segment i.
func (t *Track) Segment(i int) (orb.Point, orb.Point) {
	return t.line[i], t.line[i+1]
}

// SegmentSpan returns the arc-length interval of segment i in meters.
func (t *Track) SegmentSpan(i int) (start, end float64) {
	return t.cum[i], t.cum[i+1]
}

// projection of a point onto one segment.
type segmentHit struct {
	index int
	frac  float64 // position along the segment in [0, 1]
	point orb.Point
	dist  float64
}

// closestSegment finds the segment nearest to pt. Equidistant segments
// resolve to the lower index: the scan keeps a hit only on strict
// improvement.
func (t *Track) closestSegment(pt orb.Point) segmentHit {
	best := segmentHit{index: -1, dist: -1}
	for i := 0; i < len(t.line)-1; i++ {
		a, b := t.line[i], t.line[i+1]
		dx := b[0] - a[0]
		dy := b[1] - a[1]

		frac := 0.0
		if dx != 0 || dy != 0 {
			frac = ((pt[0]-a[0])*dx + (pt[1]-a[1])*dy) / (dx*dx + dy*dy)
			if frac < 0 {
				frac = 0
			} else if frac > 1 {
				frac = 1
			}
		}
		proj := orb.Point{a[0] + frac*dx, a[1] + frac*dy}
		d := planar.Distance(pt, proj)
		if best.index < 0 || d < best.dist {
			best = segmentHit{index: i, frac: frac, point: proj, dist: d}
		}
	}
	return best
}

// ArcLengthOf returns the distance in meters from the track start to the
// point on the track nearest to pt.
func (t *Track) ArcLengthOf(pt orb.Point) float64 {
	hit := t.closestSegment(pt)
	return t.cum[hit.index] + planar.Distance(t.line[hit.index], hit.point)
}

// DistanceTo returns the perpendicular distance in meters from pt to the
// track polyline.
func (t *Track) DistanceTo(pt orb.Point) float64 {
	return t.closestSegment(pt).dist
}

// ClosestPoint returns the point on the track nearest to pt along with its
// arc length from the track start.
func (t *Track) ClosestPoint(pt orb.Point) (orb.Point, float64) {
	hit := t.closestSegment(pt)
	return hit.point, t.cum[hit.index] + planar.Distance(t.line[hit.index], hit.point)
}
