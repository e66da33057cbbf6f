package track

import (
	"math"
	"testing"

	"github.com/trailscan/brunnels/pkg/geo"
)

func TestBufferPolygonStraightTrack(t *testing.T) {
	trk := mustTrack(t, []geo.Location{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.01},
	})

	const width = 3.0
	poly := trk.BufferPolygon(width)
	if len(poly) != 1 {
		t.Fatalf("BufferPolygon() returned %d rings, want 1", len(poly))
	}
	ring := poly[0]
	if len(ring) < 4 {
		t.Fatalf("ring has only %d points", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("ring is not closed")
	}

	// Every vertex of the corridor boundary sits at the buffer width from
	// the polyline, within the chord error of the arc approximation.
	for i, pt := range ring[:len(ring)-1] {
		d := trk.DistanceTo(pt)
		if d < 0.99*width || d > 1.005*width {
			t.Errorf("ring vertex %d at distance %.4f m, want ~%.1f", i, d, width)
		}
	}
}

func TestBufferPolygonBend(t *testing.T) {
	trk := mustTrack(t, []geo.Location{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.01},
		{Latitude: 0.01, Longitude: 0.01},
	})

	const width = 5.0
	ring := trk.BufferPolygon(width)[0]

	// Inner corner vertices sit closer than the width, so only the upper
	// bound holds around a bend.
	for i, pt := range ring[:len(ring)-1] {
		if d := trk.DistanceTo(pt); d > 1.005*width {
			t.Errorf("ring vertex %d at distance %.4f m, want at most ~%.1f", i, d, width)
		}
	}

	// Points inside the corridor map inside the ring bounds, points well
	// outside do not.
	mid := trk.Projector().Project(geo.Location{Latitude: 0, Longitude: 0.005})
	bound := ring.Bound()
	if !bound.Contains(mid) {
		t.Error("track midpoint should fall inside the corridor bounds")
	}
	far := trk.Projector().Project(geo.Location{Latitude: 0.005, Longitude: 0})
	if d := trk.DistanceTo(far); d <= width {
		t.Fatalf("test point unexpectedly within %.1f m of the track (%.1f)", width, d)
	}
}

func TestBufferPolygonEndCaps(t *testing.T) {
	trk := mustTrack(t, []geo.Location{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0, Longitude: 0.01},
	})

	const width = 3.0
	ring := trk.BufferPolygon(width)[0]

	// The caps extend the corridor beyond both endpoints along the track
	// axis by the buffer width.
	var minX, maxX float64
	minX = math.Inf(1)
	maxX = math.Inf(-1)
	for _, pt := range ring {
		minX = math.Min(minX, pt[0])
		maxX = math.Max(maxX, pt[0])
	}
	start := trk.Line()[0]
	end := trk.Line()[trk.Len()-1]
	if got := start[0] - minX; math.Abs(got-width) > 0.05 {
		t.Errorf("start cap extends %.3f m beyond the first point, want ~%.1f", got, width)
	}
	if got := maxX - end[0]; math.Abs(got-width) > 0.05 {
		t.Errorf("end cap extends %.3f m beyond the last point, want ~%.1f", got, width)
	}
}
