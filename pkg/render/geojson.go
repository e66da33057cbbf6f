// Package render produces the output artifacts of a run: an interactive
// Leaflet map, a GeoJSON feature collection, and a KML document.
package render

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/trailscan/brunnels/pkg/engine"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/track"
)

// GeoJSON renders the route and every decided entity as a FeatureCollection.
// The route feature carries kind=route; entity features carry the full
// decision so downstream tooling can filter on included or reason.
func GeoJSON(trk *track.Track, result *engine.Result) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(geojson.NewLineStringGeometry(lineCoords(trk.Locations())))
	route.SetProperty("kind", "route")
	route.SetProperty("length_km", trk.Length()/1000)
	route.SetProperty("points", trk.Len())
	fc.AddFeature(route)

	for _, e := range result.Entities {
		f := geojson.NewFeature(geojson.NewLineStringGeometry(lineCoords(e.Locations)))
		f.SetProperty("kind", string(e.Type))
		f.SetProperty("id", e.ID())
		f.SetProperty("name", e.Name())
		f.SetProperty("included", e.Decision.Included)
		f.SetProperty("reason", string(e.Decision.Reason))
		if e.Decision.Detail != "" {
			f.SetProperty("detail", e.Decision.Detail)
		}
		if span := e.Decision.Span; span != nil {
			f.SetProperty("span_start_km", span.StartKm)
			f.SetProperty("span_end_km", span.EndKm)
			f.SetProperty("span_length_km", span.LengthKm())
		}
		if e.Merged() {
			f.SetProperty("members", len(e.Members))
		}
		if len(e.TagConflicts) > 0 {
			f.SetProperty("tag_conflicts", e.TagConflicts)
		}
		fc.AddFeature(f)
	}

	return fc.MarshalJSON()
}

// lineCoords converts locations to GeoJSON [lon, lat] coordinate pairs.
func lineCoords(locs []geo.Location) [][]float64 {
	coords := make([][]float64, len(locs))
	for i, l := range locs {
		coords[i] = []float64{l.Longitude, l.Latitude}
	}
	return coords
}
