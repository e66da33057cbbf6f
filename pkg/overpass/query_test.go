package overpass

import (
	"strings"
	"testing"

	"github.com/trailscan/brunnels/pkg/geo"
)

func TestBuildTagFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter TagFilter
		want   string
	}{
		{"existence", Tag("bridge"), "[bridge]"},
		{"absence", NotTag("waterway"), "[!waterway]"},
		{"single value", Tag("tunnel", "culvert"), "[tunnel=culvert]"},
		{"excluded value", NotTag("bicycle", "no"), "[bicycle!=no]"},
		{"multiple values", Tag("railway", "rail", "tram"), "[railway~\"rail|tram\"]"},
		{"excluded multiple", NotTag("railway", "rail", "tram"), "[railway!~\"rail|tram\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTagFilter(tt.filter); got != tt.want {
				t.Errorf("buildTagFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryBuilder(t *testing.T) {
	box := geo.BoundingBox{MinLat: 47.1, MinLon: 8.2, MaxLat: 47.3, MaxLon: 8.4}
	query := NewQueryBuilder().
		WithTimeout(30).
		WithGeometry().
		WithBoundingBox(box).
		WithWay(Tag("bridge")).
		WithCondition("!is_closed()").
		Build()

	want := "[out:json][timeout:30];(way[bridge](if:!is_closed())(47.100000,8.200000,47.300000,8.400000););out geom qt;"
	if query != want {
		t.Errorf("query = %q\nwant    %q", query, want)
	}
}

func TestQueryBuilderDefaults(t *testing.T) {
	query := NewQueryBuilder().WithWay(Tag("bridge")).Build()
	if !strings.HasPrefix(query, "[out:json][timeout:25];") {
		t.Errorf("query = %q, want default format and timeout", query)
	}
	if !strings.HasSuffix(query, ");out body;") {
		t.Errorf("query = %q, want default output directive", query)
	}
}

func TestBrunnelQuery(t *testing.T) {
	box := geo.BoundingBox{MinLat: 46.0, MinLon: 7.0, MaxLat: 46.5, MaxLon: 7.5}
	query := BrunnelQuery(box, 25)

	want := "[out:json][timeout:25];" +
		"(way[bridge][!waterway][bicycle!=no](if:!is_closed())(46.000000,7.000000,46.500000,7.500000);" +
		"way[tunnel][!waterway][bicycle!=no](if:!is_closed())(46.000000,7.000000,46.500000,7.500000););" +
		"out geom qt;"
	if query != want {
		t.Errorf("BrunnelQuery() =\n%q\nwant\n%q", query, want)
	}
}
