package register

import (
	"fmt"

	"github.com/kinbook/lineage/pkg/common"
)

// EventKind discriminates linker output events.
type EventKind int

const (
	EventPerson EventKind = iota
	EventAlias
	EventMarriage
	EventParentChild
	EventAnomaly
)

// Event is one creation produced by the linker, in source order. Person
// references are 0-based creation sequence numbers; the builder turns them
// into stable identifiers.
type Event struct {
	Kind EventKind

	// EventPerson
	Person *PersonDraft

	// EventAlias
	Ref       int
	AliasName string

	// EventMarriage
	Spouse1      int
	Spouse2      int
	Ordinal      int
	IsRemarriage bool

	// EventParentChild
	Parent int
	Child  int

	// EventAnomaly
	Anomaly common.Anomaly
}

// PersonDraft carries a person's extracted fields before identifier
// assignment.
type PersonDraft struct {
	Seq         int
	Name        string
	Generation  int
	Dates       DateInfo
	Notes       string
	SourceLines []int
}

// Linker consumes the classified line stream in order and derives person,
// alias, marriage, and parent-child creation events using a mapping from
// generation number to the most recently created person at that generation.
//
// The mapping rebuilds tree structure from the flat line sequence without a
// separate nesting pass, and it degrades gracefully: state is keyed by
// generation, so one bad line cannot corrupt unrelated branches.
type Linker struct {
	events []Event
	seq    int

	latest    map[int]int // generation -> seq of most recent person there
	anchorSeq int         // most recent non-spouse person, -1 before any
	anchorGen int

	marriages map[int]int // anchor seq -> marriages so far
}

// NewLinker returns a Linker with empty state. A Linker serves exactly one
// ingestion run.
func NewLinker() *Linker {
	return &Linker{
		latest:    make(map[int]int),
		anchorSeq: -1,
		marriages: make(map[int]int),
	}
}

// Consume feeds one classified line into the linker. Unparseable lines are
// recorded and leave the generation mapping untouched; blank lines are
// skipped silently.
func (l *Linker) Consume(pl ParsedLine) {
	switch pl.Kind {
	case LinePerson:
		l.consumePerson(pl)
	case LineSpouse:
		l.consumeSpouse(pl)
	case LineUnparseable:
		l.recordAnomaly(pl.Line.Number, common.AnomalyUnparseableLine, pl.Reason)
	case LineBlank:
	}
}

// Events returns the accumulated creation events in source order.
func (l *Linker) Events() []Event {
	return l.events
}

// consumePerson creates the person, links it to the deepest shallower entry
// in the mapping, then claims its generation slot and invalidates all deeper
// slots: a new record at generation g means the previous branch below g is
// finished and cannot parent what follows.
func (l *Linker) consumePerson(pl ParsedLine) {
	g := pl.Generation
	seq := l.createPerson(pl, g)

	if parentSeq, parentGen, ok := l.deepestBelow(g); ok {
		l.events = append(l.events, Event{Kind: EventParentChild, Parent: parentSeq, Child: seq})
		if parentGen != g-1 {
			l.recordAnomaly(pl.Line.Number, common.AnomalyGenerationInvariant,
				fmt.Sprintf("child at generation %d linked to parent at generation %d", g, parentGen))
		}
	}

	l.latest[g] = seq
	for gen := range l.latest {
		if gen > g {
			delete(l.latest, gen)
		}
	}
	l.anchorSeq = seq
	l.anchorGen = g
}

// consumeSpouse creates the spouse at the anchor's generation and adds a
// marriage to the anchor. Spouses are peers, not descendants: they never
// enter the generation mapping and never receive a parent edge. A spouse
// line before any person record still creates the person, flagged, with no
// marriage.
func (l *Linker) consumeSpouse(pl ParsedLine) {
	if l.anchorSeq < 0 {
		l.createPerson(pl, pl.Depth)
		l.recordAnomaly(pl.Line.Number, common.AnomalyDanglingSpouse,
			"spouse line with no preceding person record")
		return
	}

	seq := l.createPerson(pl, l.anchorGen)
	l.marriages[l.anchorSeq]++
	l.events = append(l.events, Event{
		Kind:         EventMarriage,
		Spouse1:      l.anchorSeq,
		Spouse2:      seq,
		Ordinal:      l.marriages[l.anchorSeq],
		IsRemarriage: pl.IsRemarriage,
	})
}

func (l *Linker) createPerson(pl ParsedLine, generation int) int {
	seq := l.seq
	l.seq++

	sourceLines := make([]int, 0, 1+len(pl.Line.MergedFrom))
	sourceLines = append(sourceLines, pl.Line.Number)
	sourceLines = append(sourceLines, pl.Line.MergedFrom...)

	l.events = append(l.events, Event{
		Kind: EventPerson,
		Person: &PersonDraft{
			Seq:         seq,
			Name:        pl.Name,
			Generation:  generation,
			Dates:       pl.Dates,
			Notes:       pl.Notes,
			SourceLines: sourceLines,
		},
	})
	for _, alias := range pl.Aliases {
		l.events = append(l.events, Event{Kind: EventAlias, Ref: seq, AliasName: alias})
	}
	return seq
}

// deepestBelow finds the mapping entry closest beneath generation g. In a
// clean parse that entry sits at g-1; anything shallower means the source
// skipped generations and the caller flags the edge.
func (l *Linker) deepestBelow(g int) (seq, gen int, ok bool) {
	best := -1
	for candidate := range l.latest {
		if candidate < g && candidate > best {
			best = candidate
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return l.latest[best], best, true
}

func (l *Linker) recordAnomaly(line int, kind common.AnomalyKind, reason string) {
	l.events = append(l.events, Event{
		Kind:    EventAnomaly,
		Anomaly: common.Anomaly{Line: line, Kind: kind, Reason: reason},
	})
}
