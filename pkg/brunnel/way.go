// Package brunnel models bridge and tunnel candidates ("brunnels") fetched
// from OpenStreetMap: the atomic way, the compound entity produced by
// merging adjacent ways, the tag relevance rules and the merge engine
// itself.
package brunnel

import (
	"fmt"
	"strconv"

	"github.com/trailscan/brunnels/pkg/geo"
	"github.com/trailscan/brunnels/pkg/overpass"
)

// Type distinguishes the two supported infrastructure categories.
type Type string

const (
	Bridge Type = "bridge"
	Tunnel Type = "tunnel"
)

// Way is one atomic line feature from OpenStreetMap: a single bridge or
// tunnel way. Ways are created once from Overpass data and never mutated.
type Way struct {
	ID        int64
	Type      Type
	Locations []geo.Location
	Nodes     []int64 // one node ID per location
	Tags      map[string]string
}

// FromElement converts a raw Overpass way element into a Way. Elements with
// fewer than two geometry points or mismatched node lists are rejected.
func FromElement(el overpass.Element) (*Way, error) {
	if el.Type != "way" {
		return nil, fmt.Errorf("element %d is a %s, expected way", el.ID, el.Type)
	}
	if len(el.Geometry) < 2 {
		return nil, fmt.Errorf("way %d has %d geometry points, need at least 2", el.ID, len(el.Geometry))
	}
	if len(el.Nodes) != len(el.Geometry) {
		return nil, fmt.Errorf("way %d has %d nodes for %d geometry points", el.ID, len(el.Nodes), len(el.Geometry))
	}

	locs := make([]geo.Location, len(el.Geometry))
	for i, g := range el.Geometry {
		locs[i] = geo.Location{Latitude: g.Lat, Longitude: g.Lon}
		if !locs[i].Valid() {
			return nil, fmt.Errorf("way %d has invalid coordinates at point %d", el.ID, i)
		}
	}

	typ := Bridge
	if v, ok := el.Tags["tunnel"]; ok && v != "no" && v != "false" {
		typ = Tunnel
	}

	return &Way{
		ID:        el.ID,
		Type:      typ,
		Locations: locs,
		Nodes:     append([]int64(nil), el.Nodes...),
		Tags:      el.Tags,
	}, nil
}

// FirstNode returns the node ID of the way's first point.
func (w *Way) FirstNode() int64 { return w.Nodes[0] }

// LastNode returns the node ID of the way's last point.
func (w *Way) LastNode() int64 { return w.Nodes[len(w.Nodes)-1] }

// Closed reports whether the way loops back onto its own first node.
func (w *Way) Closed() bool { return len(w.Nodes) >= 2 && w.FirstNode() == w.LastNode() }

// Name returns the way's name tag, or "unnamed".
func (w *Way) Name() string {
	if name, ok := w.Tags["name"]; ok && name != "" {
		return name
	}
	return "unnamed"
}

// IDString returns the way ID formatted for identifiers and logs.
func (w *Way) IDString() string { return strconv.FormatInt(w.ID, 10) }
