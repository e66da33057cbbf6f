package render

import (
	"fmt"
	"image/color"
	"io"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/trailscan/brunnels/pkg/engine"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/track"
)

var (
	routeColor    = color.RGBA{R: 0xd0, G: 0x21, B: 0x1c, A: 0xff}
	bridgeColor   = color.RGBA{R: 0x1c, G: 0x53, B: 0xd0, A: 0xff}
	tunnelColor   = color.RGBA{R: 0x8b, G: 0x5a, B: 0x2b, A: 0xff}
	excludedColor = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xb0}
)

// KML writes the route and all decided entities as a KML document with
// shared styles per category.
func KML(w io.Writer, trk *track.Track, result *engine.Result) error {
	doc := kml.Document(
		kml.Name("brunnels"),
		sharedLineStyle("route", routeColor, 4),
		sharedLineStyle("bridge", bridgeColor, 5),
		sharedLineStyle("tunnel", tunnelColor, 5),
		sharedLineStyle("excluded", excludedColor, 3),
		kml.Placemark(
			kml.Name("Route"),
			kml.Description(fmt.Sprintf("%.2f km, %d points", trk.Length()/1000, trk.Len())),
			kml.StyleURL("#route"),
			lineString(trk.Locations()),
		),
	)

	for _, e := range result.Entities {
		style := "#excluded"
		if e.Decision.Included {
			style = "#" + string(e.Type)
		}
		doc.Add(kml.Placemark(
			kml.Name(e.Name()),
			kml.Description(entityDescription(e)),
			kml.StyleURL(style),
			lineString(e.Locations),
		))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}

func sharedLineStyle(id string, c color.Color, width float64) kml.Element {
	return kml.SharedStyle(id,
		kml.LineStyle(
			kml.Color(c),
			kml.Width(width),
		),
	)
}

func lineString(locs []geo.Location) kml.Element {
	coords := make([]kml.Coordinate, len(locs))
	for i, l := range locs {
		coords[i] = kml.Coordinate{Lon: l.Longitude, Lat: l.Latitude}
	}
	return kml.LineString(
		kml.Coordinates(coords...),
		kml.Tessellate(true),
	)
}

func entityDescription(e *engine.Entity) string {
	if e.Decision.Included {
		return fmt.Sprintf("%s %s, span %s", e.Type, e.ID(), e.Decision.Span)
	}
	if e.Decision.Detail != "" {
		return fmt.Sprintf("%s %s, excluded: %s (%s)", e.Type, e.ID(), e.Decision.Reason, e.Decision.Detail)
	}
	return fmt.Sprintf("%s %s, excluded: %s", e.Type, e.ID(), e.Decision.Reason)
}
