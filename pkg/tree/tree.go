// Package tree reconstructs bounded ancestor and descendant views from an
// entity graph snapshot. The engine never mutates the graph it serves, so a
// single engine handles concurrent queries; swapping in a newer snapshot is
// the provider's job.
package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kinbook/lineage/pkg/common"
)

var (
	// ErrInvalidBound rejects a negative generation bound.
	ErrInvalidBound = errors.New("generation bound must not be negative")
	// ErrNotFound marks a root identifier absent from the snapshot.
	ErrNotFound = errors.New("person not found")
)

// Node is one person in a reconstructed view. Parents is filled by ancestor
// walks and Children by descendant walks; spouses are attached to every
// visited node but are never walked through.
type Node struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Generation  int      `json:"generation"`
	BirthYear   *int     `json:"birth_year"`
	BirthCirca  bool     `json:"birth_circa"`
	DeathYear   *int     `json:"death_year"`
	DeathCirca  bool     `json:"death_circa"`
	Spouses     []Spouse `json:"spouses"`
	Parents     []*Node  `json:"parents,omitempty"`
	Children    []*Node  `json:"children,omitempty"`
}

// Spouse is a marriage partner attached to a node. Ordinal preserves the
// source order of the anchor's marriages.
type Spouse struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Generation   int    `json:"generation"`
	BirthYear    *int   `json:"birth_year"`
	BirthCirca   bool   `json:"birth_circa"`
	DeathYear    *int   `json:"death_year"`
	DeathCirca   bool   `json:"death_circa"`
	Ordinal      int    `json:"ordinal"`
	IsRemarriage bool   `json:"is_remarriage"`
}

type spouseRef struct {
	other        string
	ordinal      int
	isRemarriage bool
}

// Engine answers bounded traversal queries against one immutable snapshot.
// All adjacency indexes are built at construction; queries only read them.
type Engine struct {
	graph    *common.Graph
	persons  map[string]*common.Person
	parents  map[string][]string
	children map[string][]string
	spouses  map[string][]spouseRef
}

// NewEngine indexes a graph for traversal. Children are ordered by birth
// year with unknown years last, then by name; spouses keep their marriage
// order. The engine holds the graph, so the caller must not mutate it.
func NewEngine(graph *common.Graph) *Engine {
	e := &Engine{
		graph:    graph,
		persons:  make(map[string]*common.Person, len(graph.Persons)),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		spouses:  make(map[string][]spouseRef),
	}

	for i := range graph.Persons {
		p := &graph.Persons[i]
		e.persons[p.ID] = p
	}

	for _, edge := range graph.ParentChild {
		if e.persons[edge.ParentID] == nil || e.persons[edge.ChildID] == nil {
			continue
		}
		e.parents[edge.ChildID] = append(e.parents[edge.ChildID], edge.ParentID)
		e.children[edge.ParentID] = append(e.children[edge.ParentID], edge.ChildID)
	}

	for _, m := range graph.Marriages {
		if e.persons[m.Spouse1ID] == nil || e.persons[m.Spouse2ID] == nil {
			continue
		}
		e.spouses[m.Spouse1ID] = append(e.spouses[m.Spouse1ID],
			spouseRef{other: m.Spouse2ID, ordinal: m.Ordinal, isRemarriage: m.IsRemarriage})
		e.spouses[m.Spouse2ID] = append(e.spouses[m.Spouse2ID],
			spouseRef{other: m.Spouse1ID, ordinal: m.Ordinal, isRemarriage: m.IsRemarriage})
	}

	for id := range e.children {
		e.sortByBirth(e.children[id])
	}
	for id := range e.spouses {
		refs := e.spouses[id]
		sort.SliceStable(refs, func(i, j int) bool {
			return refs[i].ordinal < refs[j].ordinal
		})
	}

	return e
}

// Snapshot returns the graph this engine serves.
func (e *Engine) Snapshot() *common.Graph {
	return e.graph
}

// sortByBirth orders person ids by birth year with unknown years last,
// breaking ties by display name.
func (e *Engine) sortByBirth(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := e.persons[ids[i]], e.persons[ids[j]]
		switch {
		case a.BirthYear == nil && b.BirthYear == nil:
			return a.DisplayName < b.DisplayName
		case a.BirthYear == nil:
			return false
		case b.BirthYear == nil:
			return true
		case *a.BirthYear != *b.BirthYear:
			return *a.BirthYear < *b.BirthYear
		}
		return a.DisplayName < b.DisplayName
	})
}

// Ancestors walks parent edges above root for at most maxGenerations hops.
// A bound of zero returns the root alone, with its spouses.
func (e *Engine) Ancestors(rootID string, maxGenerations int) (*Node, []common.Anomaly, error) {
	return e.walk(rootID, maxGenerations, up)
}

// Descendants walks child edges below root for at most maxGenerations hops.
func (e *Engine) Descendants(rootID string, maxGenerations int) (*Node, []common.Anomaly, error) {
	return e.walk(rootID, maxGenerations, down)
}

// Tree runs both walks from the same root and merges them into one node
// carrying Parents and Children.
func (e *Engine) Tree(rootID string, maxUp, maxDown int) (*Node, []common.Anomaly, error) {
	ancestors, upAnomalies, err := e.walk(rootID, maxUp, up)
	if err != nil {
		return nil, nil, err
	}
	descendants, downAnomalies, err := e.walk(rootID, maxDown, down)
	if err != nil {
		return nil, nil, err
	}
	ancestors.Children = descendants.Children
	return ancestors, append(upAnomalies, downAnomalies...), nil
}

type direction int

const (
	up direction = iota
	down
)

func (e *Engine) walk(rootID string, maxGenerations int, dir direction) (*Node, []common.Anomaly, error) {
	if maxGenerations < 0 {
		return nil, nil, ErrInvalidBound
	}
	if e.persons[rootID] == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, rootID)
	}

	w := &walker{engine: e, path: make(map[string]bool)}
	root := w.visit(rootID, maxGenerations, dir)
	return root, w.anomalies, nil
}

// walker carries one query's state: the current recursion path for cycle
// detection and the anomalies collected along the way.
type walker struct {
	engine    *Engine
	path      map[string]bool
	anomalies []common.Anomaly
}

func (w *walker) visit(id string, remaining int, dir direction) *Node {
	node := w.engine.newNode(id)
	if remaining == 0 {
		return node
	}

	w.path[id] = true
	defer delete(w.path, id)

	neighbors := w.engine.parents[id]
	if dir == down {
		neighbors = w.engine.children[id]
	}

	for _, next := range neighbors {
		if w.path[next] {
			w.anomalies = append(w.anomalies, common.Anomaly{
				Kind: common.AnomalyCycleDetected,
				Reason: fmt.Sprintf("parent-child cycle between %q and %q; traversal truncated",
					w.engine.persons[id].DisplayName, w.engine.persons[next].DisplayName),
			})
			continue
		}
		linked := w.visit(next, remaining-1, dir)
		if dir == up {
			node.Parents = append(node.Parents, linked)
		} else {
			node.Children = append(node.Children, linked)
		}
	}

	return node
}

// newNode builds the view of one person with spouses attached. Spouse
// entries are flat: the walk never recurses through a marriage.
func (e *Engine) newNode(id string) *Node {
	p := e.persons[id]
	node := &Node{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Generation:  p.Generation,
		BirthYear:   p.BirthYear,
		BirthCirca:  p.BirthCirca,
		DeathYear:   p.DeathYear,
		DeathCirca:  p.DeathCirca,
		Spouses:     []Spouse{},
	}
	for _, ref := range e.spouses[id] {
		s := e.persons[ref.other]
		node.Spouses = append(node.Spouses, Spouse{
			ID:           s.ID,
			DisplayName:  s.DisplayName,
			Generation:   s.Generation,
			BirthYear:    s.BirthYear,
			BirthCirca:   s.BirthCirca,
			DeathYear:    s.DeathYear,
			DeathCirca:   s.DeathCirca,
			Ordinal:      ref.ordinal,
			IsRemarriage: ref.isRemarriage,
		})
	}
	return node
}
