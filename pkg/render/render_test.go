package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/engine"
	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/track"
)

func testFixture(t *testing.T) (*track.Track, *engine.Result) {
	t.Helper()
	trk, err := track.New([]geo.Location{
		{Latitude: 47.36, Longitude: 8.54},
		{Latitude: 47.37, Longitude: 8.55},
	})
	if err != nil {
		t.Fatalf("track.New() error: %v", err)
	}

	included := &engine.Entity{
		Compound: brunnel.Singleton(&brunnel.Way{
			ID:   100,
			Type: brunnel.Bridge,
			Locations: []geo.Location{
				{Latitude: 47.362, Longitude: 8.542},
				{Latitude: 47.363, Longitude: 8.543},
			},
			Nodes: []int64{1, 2},
			Tags:  map[string]string{"name": "Limmat Bridge"},
		}),
	}
	included.Decision = brunnel.Decision{
		Included: true,
		Reason:   brunnel.ReasonNone,
		Span:     &brunnel.Span{StartKm: 0.3, EndKm: 0.45},
	}

	excluded := &engine.Entity{
		Compound: brunnel.Singleton(&brunnel.Way{
			ID:   200,
			Type: brunnel.Tunnel,
			Locations: []geo.Location{
				{Latitude: 47.365, Longitude: 8.546},
				{Latitude: 47.366, Longitude: 8.547},
			},
			Nodes: []int64{3, 4},
			Tags:  map[string]string{"tunnel": "yes", "bicycle": "no"},
		}),
	}
	excluded.Decision = brunnel.Decision{
		Reason: brunnel.ReasonNotRelevant,
		Detail: "bicycle=no",
	}

	result := &engine.Result{
		Entities: []*engine.Entity{included, excluded},
		Counts: map[brunnel.Reason]int{
			brunnel.ReasonNone:        1,
			brunnel.ReasonNotRelevant: 1,
		},
	}
	return trk, result
}

func TestGeoJSON(t *testing.T) {
	trk, result := testFixture(t)
	out, err := GeoJSON(trk, result)
	if err != nil {
		t.Fatalf("GeoJSON() error: %v", err)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(out, &fc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 3 {
		t.Fatalf("got %s with %d features, want FeatureCollection with 3", fc.Type, len(fc.Features))
	}

	route := fc.Features[0]
	if route.Properties["kind"] != "route" {
		t.Errorf("first feature kind = %v, want route", route.Properties["kind"])
	}
	// Coordinates are [lon, lat].
	if route.Geometry.Coordinates[0][0] != 8.54 || route.Geometry.Coordinates[0][1] != 47.36 {
		t.Errorf("route coordinates = %v", route.Geometry.Coordinates[0])
	}

	bridge := fc.Features[1]
	if bridge.Properties["kind"] != "bridge" || bridge.Properties["included"] != true {
		t.Errorf("bridge properties = %v", bridge.Properties)
	}
	if bridge.Properties["span_start_km"] != 0.3 || bridge.Properties["span_length_km"] == nil {
		t.Errorf("bridge span properties = %v", bridge.Properties)
	}

	tunnel := fc.Features[2]
	if tunnel.Properties["reason"] != string(brunnel.ReasonNotRelevant) {
		t.Errorf("tunnel reason = %v", tunnel.Properties["reason"])
	}
	if tunnel.Properties["detail"] != "bicycle=no" {
		t.Errorf("tunnel detail = %v", tunnel.Properties["detail"])
	}
	if _, ok := tunnel.Properties["span_start_km"]; ok {
		t.Error("excluded entity without a span should have no span properties")
	}
}

func TestKML(t *testing.T) {
	trk, result := testFixture(t)
	var buf bytes.Buffer
	if err := KML(&buf, trk, result); err != nil {
		t.Fatalf("KML() error: %v", err)
	}
	out := buf.String()

	for _, fragment := range []string{
		"<kml xmlns=",
		"<name>Route</name>",
		"<name>Limmat Bridge</name>",
		"<styleUrl>#bridge</styleUrl>",
		"<styleUrl>#excluded</styleUrl>",
		"<coordinates>",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("KML output missing %q", fragment)
		}
	}
}

func TestHTML(t *testing.T) {
	trk, result := testFixture(t)
	var buf bytes.Buffer
	if err := HTML(&buf, trk, result); err != nil {
		t.Fatalf("HTML() error: %v", err)
	}
	out := buf.String()

	for _, fragment := range []string{
		"<!DOCTYPE html>",
		"leaflet.js",
		"FeatureCollection",
		"Limmat Bridge",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("HTML output missing %q", fragment)
		}
	}
}
