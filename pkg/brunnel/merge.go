package brunnel

import (
	"log/slog"
	"sort"

	"github.com/trailscan/brunnels/pkg/geo"
)

// NodeConflict records a merge-graph node shared by more than two ways.
// Merging at such a node is skipped: the junction is ambiguous and the
// affected ways stay unmerged across it.
type NodeConflict struct {
	Node   int64
	WayIDs []int64
}

// MergeResult is the output of the merge engine: one compound per maximal
// chain plus the junction conflicts encountered along the way.
type MergeResult struct {
	Compounds []*Compound
	Conflicts []NodeConflict
}

// Merge fuses topologically adjacent candidate ways into compound entities.
// Two ways connect when they share an endpoint node identifier and have the
// same type. Chains never branch: an endpoint node shared by more than two
// ways is a hard merge boundary, logged as a conflict. Each maximal chain
// becomes one Compound; ways with no partner become singleton compounds.
func Merge(ways []*Way, logger *slog.Logger) MergeResult {
	if logger == nil {
		logger = slog.Default()
	}

	// Index ways by endpoint node. Only endpoints can join chains;
	// interior nodes are not connection points.
	atNode := make(map[int64][]*Way)
	for _, w := range ways {
		atNode[w.FirstNode()] = append(atNode[w.FirstNode()], w)
		if w.LastNode() != w.FirstNode() {
			atNode[w.LastNode()] = append(atNode[w.LastNode()], w)
		}
	}

	var conflicts []NodeConflict
	links := make(map[*Way][]*Way)
	for node, group := range atNode {
		if len(group) > 2 {
			ids := make([]int64, len(group))
			for i, w := range group {
				ids[i] = w.ID
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			conflicts = append(conflicts, NodeConflict{Node: node, WayIDs: ids})
			logger.Warn("merge skipped at branching node",
				"node", node,
				"ways", ids)
			continue
		}
		if len(group) == 2 && group[0].Type == group[1].Type && group[0] != group[1] {
			links[group[0]] = append(links[group[0]], group[1])
			links[group[1]] = append(links[group[1]], group[0])
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Node < conflicts[j].Node })

	// Walk maximal chains. Start from chain endpoints (degree < 2) so the
	// member order follows the connection order; a closed loop of ways has
	// no endpoint and starts at its lowest-ID member instead.
	visited := make(map[*Way]bool)
	var compounds []*Compound

	ordered := append([]*Way(nil), ways...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, start := range ordered {
		if visited[start] || len(links[start]) >= 2 {
			continue
		}
		chain := walkChain(start, links, visited)
		compounds = append(compounds, buildCompound(chain, logger))
	}
	// Remaining unvisited ways belong to closed loops.
	for _, start := range ordered {
		if visited[start] {
			continue
		}
		chain := walkChain(start, links, visited)
		compounds = append(compounds, buildCompound(chain, logger))
	}

	return MergeResult{Compounds: compounds, Conflicts: conflicts}
}

// walkChain follows links from start until the chain ends or closes.
func walkChain(start *Way, links map[*Way][]*Way, visited map[*Way]bool) []*Way {
	chain := []*Way{start}
	visited[start] = true

	current := start
	for {
		var next *Way
		for _, candidate := range links[current] {
			if !visited[candidate] {
				next = candidate
				break
			}
		}
		if next == nil {
			return chain
		}
		visited[next] = true
		chain = append(chain, next)
		current = next
	}
}

// buildCompound concatenates a chain's geometry in topological order,
// resolving the four possible join orientations, and merges tags with
// first-member-wins conflict handling.
func buildCompound(chain []*Way, logger *slog.Logger) *Compound {
	reversed := orientChain(chain)

	var locs []geo.Location
	var nodes []int64
	for i, w := range chain {
		wLocs := w.Locations
		wNodes := w.Nodes
		if reversed[i] {
			wLocs = reverseLocations(wLocs)
			wNodes = reverseNodes(wNodes)
		}
		if i == 0 {
			locs = append(locs, wLocs...)
			nodes = append(nodes, wNodes...)
		} else {
			// The shared boundary point appears at the end of the previous
			// member; skip the duplicate.
			locs = append(locs, wLocs[1:]...)
			nodes = append(nodes, wNodes[1:]...)
		}
	}

	tags := make(map[string]string)
	var conflicts map[string][]string
	for _, w := range chain {
		for _, key := range sortedKeys(w.Tags) {
			value := w.Tags[key]
			prev, seen := tags[key]
			if !seen {
				tags[key] = value
				continue
			}
			if prev != value {
				if conflicts == nil {
					conflicts = make(map[string][]string)
				}
				if len(conflicts[key]) == 0 {
					conflicts[key] = append(conflicts[key], prev)
				}
				conflicts[key] = appendDistinct(conflicts[key], value)
			}
		}
	}

	c := &Compound{
		Members:      chain,
		Type:         chain[0].Type,
		Locations:    locs,
		Nodes:        nodes,
		Tags:         tags,
		TagConflicts: conflicts,
	}
	if len(conflicts) > 0 {
		logger.Warn("tag conflicts while merging", "compound", c.ID(), "keys", sortedConflictKeys(conflicts))
	}
	if c.Merged() {
		logger.Debug("merged adjacent ways", "compound", c.ID(), "members", len(chain))
	}
	return c
}

// orientChain decides, for each chain member, whether its point order must
// be reversed so consecutive members connect head-to-tail. The four join
// orientations (FF, FR, RF, RR) collapse to: orient each member so its
// first node matches the running chain's last node.
func orientChain(chain []*Way) []bool {
	reversed := make([]bool, len(chain))
	if len(chain) < 2 {
		return reversed
	}

	// Orient the first member by where it touches the second.
	a, b := chain[0], chain[1]
	switch {
	case a.LastNode() == b.FirstNode() || a.LastNode() == b.LastNode():
		reversed[0] = false
	default:
		reversed[0] = true
	}

	tail := a.LastNode()
	if reversed[0] {
		tail = a.FirstNode()
	}
	for i := 1; i < len(chain); i++ {
		w := chain[i]
		if w.FirstNode() == tail {
			reversed[i] = false
			tail = w.LastNode()
		} else {
			reversed[i] = true
			tail = w.FirstNode()
		}
	}
	return reversed
}

func reverseLocations(locs []geo.Location) []geo.Location {
	out := make([]geo.Location, len(locs))
	for i, l := range locs {
		out[len(locs)-1-i] = l
	}
	return out
}

func reverseNodes(nodes []int64) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedConflictKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendDistinct(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
