package geo

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/trailscan/brunnels/pkg/core"
)

// Projector converts WGS84 locations to a local planar frame in meters and
// back. It is a spherical transverse Mercator projection centered on a
// track's bounding box, so scale distortion stays negligible across the
// region of one track. Every distance and bearing computed downstream uses
// this planar frame; no geodesic formulas appear past this point.
type Projector struct {
	lat0 float64 // center latitude, radians
	lon0 float64 // center longitude, radians
}

// NewProjector constructs a projector centered on the given bounding box.
// It returns an error when the box reaches into the polar band beyond ±85°
// latitude or spans the antimeridian, where the projection's flat-earth
// assumptions no longer hold.
func NewProjector(box BoundingBox) (*Projector, error) {
	if math.Abs(box.MinLat) > MaxAbsLatitude || math.Abs(box.MaxLat) > MaxAbsLatitude {
		return nil, core.Errorf(core.ErrUnsupportedRegion,
			"region reaches latitude beyond ±%.0f°: [%.3f, %.3f]", MaxAbsLatitude, box.MinLat, box.MaxLat)
	}
	if box.MaxLon-box.MinLon > 180 {
		return nil, core.Errorf(core.ErrUnsupportedRegion,
			"region spans the antimeridian (longitude extent %.3f°)", box.MaxLon-box.MinLon)
	}
	center := box.Center()
	return &Projector{
		lat0: center.Latitude * math.Pi / 180,
		lon0: center.Longitude * math.Pi / 180,
	}, nil
}

// Project converts a WGS84 location to planar meters.
func (p *Projector) Project(loc Location) orb.Point {
	lat := loc.Latitude * math.Pi / 180
	dLon := loc.Longitude*math.Pi/180 - p.lon0

	b := math.Cos(lat) * math.Sin(dLon)
	x := EarthRadius * math.Atanh(b)
	y := EarthRadius * (math.Atan2(math.Tan(lat), math.Cos(dLon)) - p.lat0)
	return orb.Point{x, y}
}

// Unproject converts planar meters back to a WGS84 location.
func (p *Projector) Unproject(pt orb.Point) Location {
	d := pt[1]/EarthRadius + p.lat0
	sinh := math.Sinh(pt[0] / EarthRadius)

	lat := math.Asin(math.Sin(d) / math.Cosh(pt[0]/EarthRadius))
	lon := p.lon0 + math.Atan2(sinh, math.Cos(d))
	return Location{
		Latitude:  lat * 180 / math.Pi,
		Longitude: lon * 180 / math.Pi,
	}
}

// ProjectAll converts a location sequence to a planar line string.
func (p *Projector) ProjectAll(locs []Location) orb.LineString {
	line := make(orb.LineString, len(locs))
	for i, loc := range locs {
		line[i] = p.Project(loc)
	}
	return line
}
