// Package tree implements a nested-set encoding for an ordered forest.
//
// Nodes reference their parent by id; Build assigns each node a left/right
// span so that "all descendants of N" becomes a single range comparison.
// The encoding is recomputed from scratch on every build, which keeps the
// invariants trivially correct for the small forests this catalog carries.
package tree

import (
	"errors"
	"sort"
)

// ErrInvalidHierarchy is returned when a node references a missing parent
// or the parent edges contain a cycle.
var ErrInvalidHierarchy = errors.New("invalid hierarchy")

// Node is the input to Build: a record with an optional parent reference.
type Node struct {
	ID       uint
	ParentID *uint
	Name     string
}

// Position is the computed nested-set placement of a node.
// Lft and Rgt are 1-based within the node's tree; Depth is 0 for roots.
type Position struct {
	Lft    int
	Rgt    int
	Depth  int
	TreeID int
}

// Forest holds the computed encoding for a set of nodes.
type Forest struct {
	positions map[uint]Position
	order     []uint // depth-first, left-to-right, across all trees
}

// Build computes the nested-set encoding for nodes. Roots are ordered by
// name and numbered as separate trees; siblings are ordered by name with
// id as the tiebreaker.
func Build(nodes []Node) (*Forest, error) {
	byID := make(map[uint]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	children := make(map[uint][]Node)
	var roots []Node
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := byID[*n.ParentID]; !ok {
			return nil, ErrInvalidHierarchy
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	sortSiblings(roots)
	for _, siblings := range children {
		sortSiblings(siblings)
	}

	f := &Forest{positions: make(map[uint]Position, len(nodes))}
	for treeID, root := range roots {
		counter := 0
		f.number(root, children, 0, treeID+1, &counter)
	}

	// Any node left unnumbered is only reachable through a parent cycle.
	if len(f.positions) != len(nodes) {
		return nil, ErrInvalidHierarchy
	}
	return f, nil
}

func sortSiblings(siblings []Node) {
	sort.Slice(siblings, func(i, j int) bool {
		if siblings[i].Name != siblings[j].Name {
			return siblings[i].Name < siblings[j].Name
		}
		return siblings[i].ID < siblings[j].ID
	})
}

func (f *Forest) number(n Node, children map[uint][]Node, depth, treeID int, counter *int) {
	*counter++
	lft := *counter
	f.order = append(f.order, n.ID)
	for _, child := range children[n.ID] {
		f.number(child, children, depth+1, treeID, counter)
	}
	*counter++
	f.positions[n.ID] = Position{Lft: lft, Rgt: *counter, Depth: depth, TreeID: treeID}
}

// Position returns the placement of id and whether id is part of the forest.
func (f *Forest) Position(id uint) (Position, bool) {
	p, ok := f.positions[id]
	return p, ok
}

// Descendants returns the ids strictly inside id's span, in tree order.
// The node itself is excluded.
func (f *Forest) Descendants(id uint) []uint {
	p, ok := f.positions[id]
	if !ok {
		return nil
	}
	var out []uint
	for _, other := range f.order {
		op := f.positions[other]
		if op.TreeID == p.TreeID && op.Lft > p.Lft && op.Rgt < p.Rgt {
			out = append(out, other)
		}
	}
	return out
}

// IsDescendant reports whether id lies strictly inside ancestor's span.
func (f *Forest) IsDescendant(id, ancestor uint) bool {
	p, ok := f.positions[id]
	if !ok {
		return false
	}
	a, ok := f.positions[ancestor]
	if !ok {
		return false
	}
	return p.TreeID == a.TreeID && p.Lft > a.Lft && p.Rgt < a.Rgt
}

// Walk returns every node id in tree order (depth-first, left-to-right).
func (f *Forest) Walk() []uint {
	out := make([]uint, len(f.order))
	copy(out, f.order)
	return out
}
