// Package geo provides geographic primitives shared across the analyzer:
// locations, bounding boxes, bearings and the local planar projection that
// all downstream geometry runs in.
package geo

import (
	"fmt"
	"math"

	"github.com/trailscan/brunnels/pkg/core"
)

const (
	// EarthRadius is the mean Earth radius in meters (WGS84).
	EarthRadius = 6371008.8

	// MaxAbsLatitude is the latitude band limit. Tracks with points beyond
	// this are rejected because the flat-earth projection degenerates near
	// the poles.
	MaxAbsLatitude = 85.0
)

// Location represents a WGS84 coordinate pair in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the location is within WGS84 coordinate ranges.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// HaversineDistance calculates the great-circle distance between two points
// in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadius * c
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalized to [0, 360).
func Bearing(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// NewBoundingBox returns an empty bounding box ready to be extended.
func NewBoundingBox() *BoundingBox {
	return &BoundingBox{
		MinLat: 90,
		MinLon: 180,
		MaxLat: -90,
		MaxLon: -180,
	}
}

// Extend grows the box to include the given location.
func (b *BoundingBox) Extend(loc Location) {
	b.MinLat = math.Min(b.MinLat, loc.Latitude)
	b.MaxLat = math.Max(b.MaxLat, loc.Latitude)
	b.MinLon = math.Min(b.MinLon, loc.Longitude)
	b.MaxLon = math.Max(b.MaxLon, loc.Longitude)
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Location {
	return Location{
		Latitude:  (b.MinLat + b.MaxLat) / 2,
		Longitude: (b.MinLon + b.MaxLon) / 2,
	}
}

// Buffered returns a copy of the box grown by the given distance in meters
// on every side, clamped to valid coordinate ranges. The degree conversion
// uses the box's mean latitude for the longitude axis.
func (b BoundingBox) Buffered(meters float64) BoundingBox {
	latDeg := meters / 111000.0
	avgLat := (b.MinLat + b.MaxLat) / 2
	lonDeg := meters / (111000.0 * math.Abs(math.Cos(avgLat*math.Pi/180)))

	return BoundingBox{
		MinLat: math.Max(-90, b.MinLat-latDeg),
		MaxLat: math.Min(90, b.MaxLat+latDeg),
		MinLon: math.Max(-180, b.MinLon-lonDeg),
		MaxLon: math.Min(180, b.MaxLon+lonDeg),
	}
}

// BoundsOf computes the bounding box of a sequence of locations.
func BoundsOf(locs []Location) (BoundingBox, error) {
	if len(locs) == 0 {
		return BoundingBox{}, fmt.Errorf("cannot compute bounds of empty location list")
	}
	box := NewBoundingBox()
	for _, loc := range locs {
		box.Extend(loc)
	}
	return *box, nil
}

// ValidateTrack checks a location sequence against the projection's hard
// limits: no point may sit in the polar band beyond ±85° latitude and no
// consecutive pair may jump across the antimeridian. Violations are fatal
// input errors; the analyzer produces no partial results for such tracks.
func ValidateTrack(locs []Location) error {
	for i, loc := range locs {
		if math.Abs(loc.Latitude) > MaxAbsLatitude {
			return core.Errorf(core.ErrUnsupportedRegion,
				"track point %d at latitude %.3f° is within 5 degrees of a pole", i, loc.Latitude).
				WithGuidance("The planar projection degenerates near the poles; polar tracks are not supported")
		}
	}
	for i := 1; i < len(locs); i++ {
		jump := math.Abs(locs[i].Longitude - locs[i-1].Longitude)
		if jump > 180 {
			return core.Errorf(core.ErrUnsupportedRegion,
				"track crosses antimeridian between points %d and %d (longitude jump: %.3f°)", i-1, i, jump).
				WithGuidance("Split the route at the 180th meridian and analyze the halves separately")
		}
	}
	return nil
}
