package overpass

import (
	"fmt"
	"strings"

	"github.com/trailscan/brunnels/pkg/geo"
)

// QueryBuilder provides a fluent interface for building Overpass API queries
type QueryBuilder struct {
	outFormat      string
	outDirective   string
	timeout        int
	bbox           *geo.BoundingBox
	elementFilters []ElementFilter
}

// TagFilter represents a tag filter for Overpass queries
type TagFilter struct {
	Key     string
	Values  []string
	Exclude bool
}

// ElementFilter represents a filter with tags for a specific element type
type ElementFilter struct {
	ElementType string // "node", "way", "relation"
	Tags        []TagFilter
	Condition   string // optional (if:...) expression
	BBox        *geo.BoundingBox
}

// NewQueryBuilder creates a new builder with default settings
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		outFormat:    "json",
		outDirective: "body",
		timeout:      25, // Default timeout in seconds
	}
}

// WithTimeout sets the query timeout
func (b *QueryBuilder) WithTimeout(seconds int) *QueryBuilder {
	b.timeout = seconds
	return b
}

// WithGeometry requests full per-way geometry, sorted by quadtile
func (b *QueryBuilder) WithGeometry() *QueryBuilder {
	b.outDirective = "geom qt"
	return b
}

// WithBoundingBox sets a bounding box filter applied to subsequent elements
func (b *QueryBuilder) WithBoundingBox(box geo.BoundingBox) *QueryBuilder {
	b.bbox = &box
	return b
}

// WithWay adds a way filter
func (b *QueryBuilder) WithWay(tags ...TagFilter) *QueryBuilder {
	b.elementFilters = append(b.elementFilters, ElementFilter{
		ElementType: "way",
		Tags:        tags,
		BBox:        b.bbox,
	})
	return b
}

// WithCondition attaches an Overpass (if:...) expression to the most
// recently added element filter
func (b *QueryBuilder) WithCondition(expr string) *QueryBuilder {
	if len(b.elementFilters) > 0 {
		b.elementFilters[len(b.elementFilters)-1].Condition = expr
	}
	return b
}

// Tag creates a TagFilter for a key with optional values
func Tag(key string, values ...string) TagFilter {
	return TagFilter{
		Key:    key,
		Values: values,
	}
}

// NotTag creates an excluding TagFilter
func NotTag(key string, values ...string) TagFilter {
	return TagFilter{
		Key:     key,
		Values:  values,
		Exclude: true,
	}
}

// Build generates the Overpass query string
func (b *QueryBuilder) Build() string {
	var query strings.Builder

	// Add query format and timeout
	query.WriteString(fmt.Sprintf("[out:%s][timeout:%d];", b.outFormat, b.timeout))

	// Start element collection
	query.WriteString("(")

	for _, filter := range b.elementFilters {
		query.WriteString(buildElementFilter(filter))
	}

	// Close element collection and add output directive
	query.WriteString(fmt.Sprintf(");out %s;", b.outDirective))

	return query.String()
}

// buildElementFilter generates the query part for a specific element filter
func buildElementFilter(filter ElementFilter) string {
	var elementQuery strings.Builder

	elementQuery.WriteString(filter.ElementType)

	for _, tag := range filter.Tags {
		elementQuery.WriteString(buildTagFilter(tag))
	}

	if filter.Condition != "" {
		elementQuery.WriteString(fmt.Sprintf("(if:%s)", filter.Condition))
	}

	if filter.BBox != nil {
		elementQuery.WriteString(fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)",
			filter.BBox.MinLat, filter.BBox.MinLon, filter.BBox.MaxLat, filter.BBox.MaxLon))
	}

	elementQuery.WriteString(";")
	return elementQuery.String()
}

// buildTagFilter generates the query part for a tag filter
func buildTagFilter(filter TagFilter) string {
	// If no values provided, just check for the existence of the tag
	if len(filter.Values) == 0 {
		if filter.Exclude {
			return fmt.Sprintf("[!%s]", filter.Key)
		}
		return fmt.Sprintf("[%s]", filter.Key)
	}

	// Handle single value case
	if len(filter.Values) == 1 {
		if filter.Exclude {
			return fmt.Sprintf("[%s!=%s]", filter.Key, filter.Values[0])
		}
		return fmt.Sprintf("[%s=%s]", filter.Key, filter.Values[0])
	}

	// Multiple values using regex
	values := strings.Join(filter.Values, "|")
	if filter.Exclude {
		return fmt.Sprintf("[%s!~\"%s\"]", filter.Key, values)
	}
	return fmt.Sprintf("[%s~\"%s\"]", filter.Key, values)
}

// BrunnelQuery builds the query that fetches all bridge and tunnel ways with
// full geometry within the given bounding box. Obviously irrelevant ways are
// filtered server-side (waterway features, bicycle=no, closed rings); the
// remaining relevance rules are re-checked client-side.
func BrunnelQuery(box geo.BoundingBox, timeoutSeconds int) string {
	return NewQueryBuilder().
		WithTimeout(timeoutSeconds).
		WithGeometry().
		WithBoundingBox(box).
		WithWay(Tag("bridge"), NotTag("waterway"), NotTag("bicycle", "no")).
		WithCondition("!is_closed()").
		WithWay(Tag("tunnel"), NotTag("waterway"), NotTag("bicycle", "no")).
		WithCondition("!is_closed()").
		Build()
}
