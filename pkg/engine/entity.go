package engine

import (
	"github.com/paulmach/orb"

	"github.com/trailscan/brunnels/pkg/brunnel"
	"github.com/trailscan/brunnels/pkg/track"
)

// Entity is one candidate compound flowing through the pipeline together
// with its projected geometry and, once assigned, its decision.
type Entity struct {
	*brunnel.Compound

	// Line is the compound geometry projected into the track's planar
	// frame.
	Line orb.LineString

	// Decision is attached exactly once by the pipeline and never revised
	// afterwards.
	Decision brunnel.Decision
}

// newEntity projects the compound into the track's frame.
func newEntity(c *brunnel.Compound, trk *track.Track) *Entity {
	return &Entity{
		Compound: c,
		Line:     trk.Projector().ProjectAll(c.Locations),
	}
}

// exclude marks the entity excluded with the given reason.
func (e *Entity) exclude(reason brunnel.Reason, detail string) {
	e.Decision.Included = false
	e.Decision.Reason = reason
	e.Decision.Detail = detail
}

// include marks the entity included.
func (e *Entity) include() {
	e.Decision.Included = true
	e.Decision.Reason = brunnel.ReasonNone
}
