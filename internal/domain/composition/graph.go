// Package composition guards the sub-recipe graph. Recipes are nodes keyed
// by id and sub-recipe links are directed edges parent → child; the graph
// must stay acyclic, self-loops included.
package composition

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
)

var (
	// ErrCycleRejected is returned when a link would close a cycle, or when
	// a recipe's existing composition is already cyclic.
	ErrCycleRejected = errors.New("cyclic recipe composition rejected")

	// ErrTraversalBudget is returned when a traversal visits more recipes
	// than the configured node budget.
	ErrTraversalBudget = errors.New("composition traversal exceeded node budget")
)

// LinkLister reads outgoing sub-recipe links
type LinkLister interface {
	ListByParent(ctx context.Context, parentID recipe.ID) ([]recipe.SubRecipeLink, error)
}

// Option configures a Graph
type Option func(*Graph)

// WithMaxNodes bounds every traversal to at most n distinct recipes.
// Zero disables the bound.
func WithMaxNodes(n int) Option {
	return func(g *Graph) { g.maxNodes = n }
}

// Graph answers reachability questions over stored links
type Graph struct {
	links    LinkLister
	maxNodes int
}

// NewGraph creates a composition graph over links
func NewGraph(links LinkLister, opts ...Option) *Graph {
	g := &Graph{links: links}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WouldCreateCycle reports whether adding parent → child closes a cycle,
// that is whether parent is reachable from child. A self-link always does.
func (g *Graph) WouldCreateCycle(ctx context.Context, parent, child recipe.ID) (bool, error) {
	if parent == child {
		return true, nil
	}

	adj := newAdjacency(g.links)
	visited := map[recipe.ID]struct{}{child: {}}
	stack := []recipe.ID{child}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := adj.children(ctx, node)
		if err != nil {
			return false, err
		}
		for _, next := range children {
			if next == parent {
				return true, nil
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			if g.maxNodes > 0 && len(visited) > g.maxNodes {
				return false, ErrTraversalBudget
			}
			stack = append(stack, next)
		}
	}
	return false, nil
}

// ValidateLink returns ErrCycleRejected when parent → child would close a
// cycle.
func (g *Graph) ValidateLink(ctx context.Context, parent, child recipe.ID) error {
	cyclic, err := g.WouldCreateCycle(ctx, parent, child)
	if err != nil {
		return err
	}
	if cyclic {
		return fmt.Errorf("%w: %d -> %d", ErrCycleRejected, parent, child)
	}
	return nil
}

const (
	white = iota
	grey
	black
)

// ReachesCycle reports whether the composition reachable from root already
// contains a cycle. Stored data written before cycle checks existed can
// violate the invariant, so readers that expand compositions check first.
func (g *Graph) ReachesCycle(ctx context.Context, root recipe.ID) (bool, error) {
	type frame struct {
		node     recipe.ID
		children []recipe.ID
		next     int
	}

	adj := newAdjacency(g.links)
	colour := map[recipe.ID]int{}

	push := func(stack []frame, node recipe.ID) ([]frame, error) {
		children, err := adj.children(ctx, node)
		if err != nil {
			return nil, err
		}
		colour[node] = grey
		if g.maxNodes > 0 && len(colour) > g.maxNodes {
			return nil, ErrTraversalBudget
		}
		return append(stack, frame{node: node, children: children}), nil
	}

	stack, err := push(nil, root)
	if err != nil {
		return false, err
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		top := &stack[len(stack)-1]
		if top.next == len(top.children) {
			colour[top.node] = black
			stack = stack[:len(stack)-1]
			continue
		}
		next := top.children[top.next]
		top.next++

		switch colour[next] {
		case grey:
			return true, nil
		case white:
			if stack, err = push(stack, next); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// adjacency memoizes child lists for the duration of one check
type adjacency struct {
	links LinkLister
	memo  map[recipe.ID][]recipe.ID
}

func newAdjacency(links LinkLister) *adjacency {
	return &adjacency{links: links, memo: make(map[recipe.ID][]recipe.ID)}
}

func (a *adjacency) children(ctx context.Context, id recipe.ID) ([]recipe.ID, error) {
	if ids, ok := a.memo[id]; ok {
		return ids, nil
	}
	links, err := a.links.ListByParent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list sub-recipes of %d: %w", id, err)
	}
	ids := make([]recipe.ID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ChildID)
	}
	a.memo[id] = ids
	return ids, nil
}
