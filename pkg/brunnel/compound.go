package brunnel

import (
	"strings"

	"github.com/trailscan/brunnels/pkg/geo"
)

// Compound is one or more candidate ways merged into a single continuous
// feature. Every way surviving the tag filter becomes a Compound: a way
// with no merge partner becomes a Compound of size one and behaves
// identically from then on. Compounds are immutable once built.
type Compound struct {
	Members   []*Way // in connection order
	Type      Type
	Locations []geo.Location
	Nodes     []int64
	Tags      map[string]string

	// TagConflicts records, per key, all distinct values seen across
	// members when they disagreed. The first member's value won.
	TagConflicts map[string][]string
}

// Singleton wraps a lone way in a Compound without running the merge
// engine, for ways that never entered it.
func Singleton(w *Way) *Compound {
	return &Compound{
		Members:   []*Way{w},
		Type:      w.Type,
		Locations: w.Locations,
		Nodes:     w.Nodes,
		Tags:      w.Tags,
	}
}

// ID returns the compound identity: member way IDs joined by ";" in
// connection order.
func (c *Compound) ID() string {
	parts := make([]string, len(c.Members))
	for i, m := range c.Members {
		parts[i] = m.IDString()
	}
	return strings.Join(parts, ";")
}

// Merged reports whether more than one way was fused into this entity.
func (c *Compound) Merged() bool { return len(c.Members) > 1 }

// Name returns the name of the first member that has one, or "unnamed".
func (c *Compound) Name() string {
	for _, m := range c.Members {
		if name, ok := m.Tags["name"]; ok && name != "" {
			return name
		}
	}
	return "unnamed"
}

// Description returns a short human-readable label for logging.
func (c *Compound) Description() string {
	label := capitalize(string(c.Type))
	if c.Merged() {
		return "Compound " + label + ": " + c.Name() + " (" + c.ID() + ") [" +
			strings.Join(memberIDs(c.Members), ", ") + "]"
	}
	return label + ": " + c.Name() + " (" + c.ID() + ")"
}

func memberIDs(members []*Way) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.IDString()
	}
	return ids
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
