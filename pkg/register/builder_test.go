package register

import (
	"fmt"
	"testing"

	"github.com/kinbook/lineage/pkg/common"
)

// seqIDs returns a generator producing p01, p02, ... so tests can assert
// identifiers without depending on randomness.
func seqIDs() IDFunc {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("p%02d", n), nil
	}
}

func TestBuilder_AssignsIdentifiers(t *testing.T) {
	events := linkLines(
		"....3 Jane Doe 1900-1980",
		".....+John Roe 1898-1970",
	)

	graph, err := NewBuilder(NewBuilderParams{IDGenerator: seqIDs()}).Build(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(graph.Persons) != 2 {
		t.Fatalf("unexpected person count: got %d, want 2", len(graph.Persons))
	}
	if graph.Persons[0].ID != "p01" || graph.Persons[1].ID != "p02" {
		t.Fatalf("unexpected ids: %q, %q", graph.Persons[0].ID, graph.Persons[1].ID)
	}
	if graph.Persons[0].DisplayName != "Jane Doe" {
		t.Fatalf("unexpected name: got %q", graph.Persons[0].DisplayName)
	}

	if len(graph.Marriages) != 1 {
		t.Fatalf("unexpected marriage count: got %d, want 1", len(graph.Marriages))
	}
	m := graph.Marriages[0]
	if m.Spouse1ID != "p01" || m.Spouse2ID != "p02" {
		t.Fatalf("unexpected marriage endpoints: %+v", m)
	}
	if len(graph.ParentChild) != 0 {
		t.Fatalf("unexpected parent edges: %v", graph.ParentChild)
	}
	if len(graph.Anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", graph.Anomalies)
	}
}

func TestBuilder_MapsAliasAndParentEdges(t *testing.T) {
	events := linkLines(
		".1 Mary 'Polly' Adams",
		"..2 Ben Adams",
	)

	graph, err := NewBuilder(NewBuilderParams{IDGenerator: seqIDs()}).Build(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(graph.Aliases) != 1 {
		t.Fatalf("unexpected alias count: got %d, want 1", len(graph.Aliases))
	}
	if graph.Aliases[0].PersonID != "p01" || graph.Aliases[0].AliasName != "Polly" {
		t.Fatalf("unexpected alias: %+v", graph.Aliases[0])
	}

	if len(graph.ParentChild) != 1 {
		t.Fatalf("unexpected edge count: got %d, want 1", len(graph.ParentChild))
	}
	edge := graph.ParentChild[0]
	if edge.ParentID != "p01" || edge.ChildID != "p02" {
		t.Fatalf("unexpected edge: %+v", edge)
	}
}

func TestBuilder_SelfMarriageDropped(t *testing.T) {
	events := []Event{
		{Kind: EventPerson, Person: &PersonDraft{Seq: 0, Name: "Adam Adams"}},
		{Kind: EventMarriage, Spouse1: 0, Spouse2: 0, Ordinal: 1},
	}

	graph, err := NewBuilder(NewBuilderParams{IDGenerator: seqIDs()}).Build(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Marriages) != 0 {
		t.Fatalf("self marriage should be dropped, got %v", graph.Marriages)
	}
	if len(graph.Anomalies) != 1 || graph.Anomalies[0].Kind != common.AnomalyDanglingSpouse {
		t.Fatalf("unexpected anomalies: %v", graph.Anomalies)
	}
}

func TestBuilder_UnknownReferenceFails(t *testing.T) {
	events := []Event{
		{Kind: EventMarriage, Spouse1: 0, Spouse2: 1, Ordinal: 1},
	}

	if _, err := NewBuilder(NewBuilderParams{IDGenerator: seqIDs()}).Build(events); err == nil {
		t.Fatal("expected error for unknown person reference")
	}
}

func TestBuilder_DefaultGeneratorUnique(t *testing.T) {
	b := NewBuilder(NewBuilderParams{})
	events := linkLines(".1 Adam Adams", "..2 Beth Adams")

	graph, err := b.Build(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Persons) != 2 {
		t.Fatalf("unexpected person count: got %d, want 2", len(graph.Persons))
	}
	if graph.Persons[0].ID == "" || graph.Persons[0].ID == graph.Persons[1].ID {
		t.Fatalf("identifiers must be unique and non-empty: %q, %q",
			graph.Persons[0].ID, graph.Persons[1].ID)
	}
}
