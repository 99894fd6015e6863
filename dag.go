package hp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrResourceCycle is returned when a dependency cycle between
	// resources is found. It always indicates a misconfiguration: a
	// resource that another resource depends on itself depends on that
	// other resource, through the relation calculators of one or more
	// resources.
	ErrResourceCycle = errors.New("resource cycle detected")
)

// graph is a directed acyclic graph of resources, used to ensure the
// ordering constraints of CSS and JS resources are met.
//
// Nodes point to their dependencies, and dependencies are always walked
// first: with an edge from 1 to 2, 2 appears before 1.
type graph struct {
	nodes []resource

	// edgesFrom is keyed by a node's position in nodes and holds the
	// positions of the nodes it depends on.
	edgesFrom map[int]map[int]struct{}

	// edgesTo is keyed by a node's position in nodes and holds the
	// positions of the nodes depending on it.
	edgesTo map[int]map[int]struct{}
}

func newGraph() *graph {
	return &graph{
		edgesFrom: map[int]map[int]struct{}{},
		edgesTo:   map[int]map[int]struct{}{},
	}
}

// resourceGraphs holds one graph for CSS, one for JavaScript rendered in the
// page header and one for JavaScript rendered in the page footer.
type resourceGraphs struct {
	css    *graph
	headJS *graph
	footJS *graph
}

// buildGraphs creates a resourceGraphs containing all the resources that the
// passed components define, with all their dependencies computed.
//
// Each component's resources have an implicit dependency on the previous
// resource of the same kind declared by that component, so their order is
// preserved when rendering them.
func buildGraphs(ctx context.Context, components []Component) resourceGraphs {
	result := resourceGraphs{
		css:    newGraph(),
		headJS: newGraph(),
		footJS: newGraph(),
	}
	for _, component := range components {
		if linker, ok := component.(CSSLinker); ok {
			result.css.addChain(toResources(linker.LinkCSS(ctx)))
		}
		if embedder, ok := component.(CSSEmbedder); ok {
			result.css.addChain(toResources(embedder.EmbedCSS(ctx)))
		}
		if linker, ok := component.(JSLinker); ok {
			head, foot := splitJS(linker.LinkJS(ctx), func(l JSLink) bool { return l.PlaceInFooter })
			result.headJS.addChain(head)
			result.footJS.addChain(foot)
		}
		if embedder, ok := component.(JSEmbedder); ok {
			head, foot := splitJS(embedder.EmbedJS(ctx), func(i JSInline) bool { return i.PlaceInFooter })
			result.headJS.addChain(head)
			result.footJS.addChain(foot)
		}
	}
	result.css.addCalculatedEdges(ctx)
	result.headJS.addCalculatedEdges(ctx)
	result.footJS.addCalculatedEdges(ctx)
	return result
}

func toResources[R resource](in []R) []resource {
	out := make([]resource, 0, len(in))
	for _, r := range in {
		out = append(out, r)
	}
	return out
}

func splitJS[R resource](in []R, inFooter func(R) bool) (head, foot []resource) {
	for _, r := range in {
		if inFooter(r) {
			foot = append(foot, r)
		} else {
			head = append(head, r)
		}
	}
	return head, foot
}

// addChain adds resources declared together by one component, skipping any
// already in the graph. Every implicitly ordered resource depends on the
// implicitly ordered resource added before it.
func (g *graph) addChain(resources []resource) {
	last := -1
	for _, res := range resources {
		if slices.ContainsFunc(g.nodes, res.equal) {
			continue
		}
		g.nodes = append(g.nodes, res)
		if !res.implicitlyOrdered() {
			continue
		}
		pos := len(g.nodes) - 1
		if last >= 0 {
			g.addEdge(pos, last)
		}
		last = pos
	}
}

// addCalculatedEdges asks every resource with relation calculators where it
// belongs relative to every other resource in the graph.
func (g *graph) addCalculatedEdges(ctx context.Context) {
	for pos, res := range g.nodes {
		if !res.hasCalculators() {
			continue
		}
		for otherPos, other := range g.nodes {
			if otherPos == pos {
				continue
			}
			switch res.relationTo(ctx, other) {
			case ResourceRelationshipAfter:
				g.addEdge(pos, otherPos)
			case ResourceRelationshipBefore:
				g.addEdge(otherPos, pos)
			case ResourceRelationshipNeutral:
				// no dependency either way
			}
		}
	}
}

// addEdge records that the node at from depends on the node at to.
func (g *graph) addEdge(from, to int) {
	if g.edgesFrom[from] == nil {
		g.edgesFrom[from] = map[int]struct{}{}
	}
	if g.edgesTo[to] == nil {
		g.edgesTo[to] = map[int]struct{}{}
	}
	g.edgesFrom[from][to] = struct{}{}
	g.edgesTo[to][from] = struct{}{}
}

func (g *graph) compare(a, b int) int {
	aRank, aKey := g.nodes[a].sortKey()
	bRank, bKey := g.nodes[b].sortKey()
	if aRank != bRank {
		return aRank - bRank
	}
	return strings.Compare(aKey, bKey)
}

// walk returns the nodes of the graph in dependency order. Whenever more than
// one node is free to go next, the one with the lowest sortKey is picked. It
// consumes the graph's edges.
func (g *graph) walk(_ context.Context) ([]resource, error) {
	ready := make([]int, 0, len(g.nodes))
	for pos := range g.nodes {
		if len(g.edgesFrom[pos]) < 1 {
			ready = append(ready, pos)
		}
	}
	slices.SortFunc(ready, g.compare)

	results := make([]resource, 0, len(g.nodes))
	visited := map[int]struct{}{}
	for len(ready) > 0 {
		pos := ready[0]
		ready = ready[1:]
		results = append(results, g.nodes[pos])
		visited[pos] = struct{}{}

		var changed bool
		for dependent := range g.edgesTo[pos] {
			delete(g.edgesFrom[dependent], pos)
			if len(g.edgesFrom[dependent]) < 1 {
				delete(g.edgesFrom, dependent)
				ready = append(ready, dependent)
				changed = true
			}
		}
		delete(g.edgesTo, pos)
		if changed {
			slices.SortFunc(ready, g.compare)
		}
	}

	if len(results) < len(g.nodes) {
		var stuck []string
		for pos, res := range g.nodes {
			if _, ok := visited[pos]; ok {
				continue
			}
			stuck = append(stuck, res.String())
		}
		return results, fmt.Errorf("%w: resources=[%s]", ErrResourceCycle, strings.Join(stuck, ", "))
	}
	return results, nil
}
