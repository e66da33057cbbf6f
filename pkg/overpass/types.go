// Package overpass provides a rate-limited, caching client for the Overpass
// API, tuned to fetching bridge and tunnel way geometry.
package overpass

// LatLon is one vertex of a way geometry as returned by `out geom`.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Element represents an element returned from the Overpass API
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Nodes    []int64           `json:"nodes,omitempty"`    // For ways, list of node IDs
	Geometry []LatLon          `json:"geometry,omitempty"` // Present with `out geom`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Response is the top-level Overpass JSON response envelope.
type Response struct {
	Elements []Element `json:"elements"`
}
