package register

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kinbook/lineage/pkg/common"
)

var sampleTranscript = strings.Join([]string{
	"1 Josiah Adams 1801-1870",
	"+ Hannah Lee ca 1805",
	".2 Mary Adams 'Polly' 1825-1890",
	"+ Thomas Quick (no issue)",
	"..3 Ann Quick",
	"Sep 6; 1830",
	".2 Henry Adams 1828-1901",
	"Adams, Josiah ........ 214",
}, "\n")

func personByName(t *testing.T, graph *common.Graph, name string) common.Person {
	t.Helper()
	for _, p := range graph.Persons {
		if p.DisplayName == name {
			return p
		}
	}
	t.Fatalf("person %q not in graph", name)
	return common.Person{}
}

func TestParseText_FullTranscript(t *testing.T) {
	parser := NewParser(NewParserParams{IDGenerator: seqIDs()})
	graph, err := parser.ParseText(sampleTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if graph.LineCount != 8 {
		t.Fatalf("unexpected line count: got %d, want 8", graph.LineCount)
	}
	if len(graph.Persons) != 6 {
		t.Fatalf("unexpected person count: got %d, want 6", len(graph.Persons))
	}

	josiah := personByName(t, graph, "Josiah Adams")
	if josiah.Generation != 1 {
		t.Errorf("unexpected generation for Josiah: got %d, want 1", josiah.Generation)
	}
	if josiah.BirthYear == nil || *josiah.BirthYear != 1801 {
		t.Errorf("unexpected birth year for Josiah: got %v", josiah.BirthYear)
	}
	if josiah.DeathYear == nil || *josiah.DeathYear != 1870 {
		t.Errorf("unexpected death year for Josiah: got %v", josiah.DeathYear)
	}

	hannah := personByName(t, graph, "Hannah Lee")
	if hannah.Generation != 1 {
		t.Errorf("spouse should take the anchor generation: got %d, want 1", hannah.Generation)
	}
	if !hannah.BirthCirca {
		t.Error("Hannah's birth year should be circa")
	}

	thomas := personByName(t, graph, "Thomas Quick")
	if thomas.Notes != "(no issue)" {
		t.Errorf("unexpected notes for Thomas: got %q", thomas.Notes)
	}

	ann := personByName(t, graph, "Ann Quick")
	if !reflect.DeepEqual(ann.SourceLines, []int{5, 6}) {
		t.Errorf("unexpected source lines for Ann: got %v, want [5 6]", ann.SourceLines)
	}
	if ann.BirthYear == nil || *ann.BirthYear != 1830 {
		t.Errorf("unexpected birth year for Ann: got %v", ann.BirthYear)
	}

	if len(graph.Aliases) != 1 {
		t.Fatalf("unexpected alias count: got %d, want 1", len(graph.Aliases))
	}
	mary := personByName(t, graph, "Mary Adams")
	if graph.Aliases[0].PersonID != mary.ID || graph.Aliases[0].AliasName != "Polly" {
		t.Fatalf("unexpected alias: %+v", graph.Aliases[0])
	}

	if len(graph.Marriages) != 2 {
		t.Fatalf("unexpected marriage count: got %d, want 2", len(graph.Marriages))
	}

	henry := personByName(t, graph, "Henry Adams")
	wantEdges := []common.ParentChild{
		{ParentID: josiah.ID, ChildID: mary.ID},
		{ParentID: mary.ID, ChildID: ann.ID},
		{ParentID: josiah.ID, ChildID: henry.ID},
	}
	if !reflect.DeepEqual(graph.ParentChild, wantEdges) {
		t.Fatalf("unexpected edges: got %v, want %v", graph.ParentChild, wantEdges)
	}

	if len(graph.Anomalies) != 1 {
		t.Fatalf("unexpected anomaly count: got %d, want 1", len(graph.Anomalies))
	}
	if graph.Anomalies[0].Kind != common.AnomalyUnparseableLine || graph.Anomalies[0].Line != 8 {
		t.Fatalf("unexpected anomaly: %+v", graph.Anomalies[0])
	}
}

func TestParseText_Deterministic(t *testing.T) {
	first, err := NewParser(NewParserParams{IDGenerator: seqIDs()}).ParseText(sampleTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewParser(NewParserParams{IDGenerator: seqIDs()}).ParseText(sampleTranscript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same input must produce an identical graph")
	}
}

func TestParseText_GarbageNeverFails(t *testing.T) {
	graph, err := NewParser(NewParserParams{IDGenerator: seqIDs()}).ParseText("??\n###\n1910")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Persons) != 0 {
		t.Fatalf("garbage should yield no persons, got %v", graph.Persons)
	}
	if len(graph.Anomalies) != 2 {
		t.Fatalf("unexpected anomaly count: got %d, want 2", len(graph.Anomalies))
	}
	for _, a := range graph.Anomalies {
		if a.Kind != common.AnomalyUnparseableLine {
			t.Fatalf("unexpected anomaly kind: %q", a.Kind)
		}
	}
}

func TestParseText_CRLFInput(t *testing.T) {
	graph, err := NewParser(NewParserParams{IDGenerator: seqIDs()}).
		ParseText(".1 Adam Adams\r\n..2 Beth Adams\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graph.Persons) != 2 {
		t.Fatalf("unexpected person count: got %d, want 2", len(graph.Persons))
	}
	if len(graph.ParentChild) != 1 {
		t.Fatalf("unexpected edge count: got %d, want 1", len(graph.ParentChild))
	}
}
