package brunnel

// Tag relevance rules for cycling routes. The Overpass query applies the
// same rules server-side; the client-side re-check keeps the pipeline
// honest when responses come from a cache or an alternate endpoint.

// Irrelevant returns the rule that disqualifies the way from cycling
// analysis, or "" when the way is relevant. Rules, in evaluation order:
// closed ways (area outlines, not crossings), bicycle=no, any waterway tag,
// and railways that are not abandoned.
func Irrelevant(w *Way) string {
	if w.Closed() {
		return "closed way"
	}
	if w.Tags["bicycle"] == "no" {
		return "bicycle=no"
	}
	if _, ok := w.Tags["waterway"]; ok {
		return "waterway"
	}
	if v, ok := w.Tags["railway"]; ok && v != "abandoned" {
		return "railway=" + v
	}
	return ""
}
