// Package gpx loads GPS routes from GPX files. All tracks and segments in a
// file are concatenated in document order into a single point sequence.
package gpx

import (
	"fmt"
	"io"
	"os"

	"github.com/twpayne/go-gpx"

	"github.com/trailscan/brunnels/pkg/core"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/track"
)

// Load reads a GPX file and builds the track. Validation of the projection
// limits happens inside track construction, so a route through the polar
// band or across the antimeridian fails here.
func Load(path string) (*track.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	trk, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return trk, nil
}

// Read parses GPX data from r and builds the track.
func Read(r io.Reader) (*track.Track, error) {
	g, err := gpx.Read(r)
	if err != nil {
		return nil, core.Errorf(core.ErrParseError, "invalid GPX data: %v", err).
			WithGuidance("Check that the file is a well-formed GPX document")
	}

	locs := Locations(g)
	if len(locs) == 0 {
		return nil, core.NewError(core.ErrInvalidTrack, "GPX file contains no track points").
			WithGuidance("The file may hold only waypoints or routes; a recorded <trk> is required")
	}
	return track.New(locs)
}

// Locations flattens every track segment of the document into one ordered
// location sequence.
func Locations(g *gpx.GPX) []geo.Location {
	var locs []geo.Location
	for _, trk := range g.Trk {
		for _, seg := range trk.TrkSeg {
			for _, pt := range seg.TrkPt {
				locs = append(locs, geo.Location{Latitude: pt.Lat, Longitude: pt.Lon})
			}
		}
	}
	return locs
}
