package register

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kinbook/lineage/pkg/common"
)

// IDFunc produces one new public identifier per call.
type IDFunc func() (string, error)

// NanoID is the default identifier generator.
func NanoID() (string, error) {
	return gonanoid.New()
}

// Builder assembles the linker's event stream into a Graph, assigning each
// person a stable public identifier at the moment of creation. Identifiers
// are never reused within a run; feeding the same events through a builder
// with the same generator yields an identical graph.
type Builder struct {
	newID IDFunc
}

type NewBuilderParams struct {
	// IDGenerator overrides the identifier source. Nil means NanoID.
	IDGenerator IDFunc
}

func NewBuilder(params NewBuilderParams) *Builder {
	if params.IDGenerator == nil {
		params.IDGenerator = NanoID
	}
	return &Builder{newID: params.IDGenerator}
}

// Build turns events into a Graph. Alias and parent-child events must
// reference persons created earlier in the stream; a violation means the
// event source is broken and Build fails. A marriage whose endpoints
// collapse to the same person is a source defect, not a program defect:
// the edge is dropped and recorded as an anomaly.
func (b *Builder) Build(events []Event) (*common.Graph, error) {
	graph := &common.Graph{
		Persons:     []common.Person{},
		Aliases:     []common.Alias{},
		Marriages:   []common.Marriage{},
		ParentChild: []common.ParentChild{},
		Anomalies:   []common.Anomaly{},
	}
	ids := make(map[int]string)

	for _, ev := range events {
		switch ev.Kind {
		case EventPerson:
			id, err := b.newID()
			if err != nil {
				return nil, fmt.Errorf("generating person id: %w", err)
			}
			ids[ev.Person.Seq] = id
			graph.Persons = append(graph.Persons, common.Person{
				ID:          id,
				DisplayName: ev.Person.Name,
				Generation:  ev.Person.Generation,
				BirthYear:   ev.Person.Dates.BirthYear,
				BirthCirca:  ev.Person.Dates.BirthCirca,
				DeathYear:   ev.Person.Dates.DeathYear,
				DeathCirca:  ev.Person.Dates.DeathCirca,
				Notes:       ev.Person.Notes,
				SourceLines: ev.Person.SourceLines,
			})

		case EventAlias:
			id, ok := ids[ev.Ref]
			if !ok {
				return nil, fmt.Errorf("alias event references unknown person %d", ev.Ref)
			}
			graph.Aliases = append(graph.Aliases, common.Alias{
				PersonID:  id,
				AliasName: ev.AliasName,
			})

		case EventMarriage:
			spouse1, ok := ids[ev.Spouse1]
			if !ok {
				return nil, fmt.Errorf("marriage event references unknown person %d", ev.Spouse1)
			}
			spouse2, ok := ids[ev.Spouse2]
			if !ok {
				return nil, fmt.Errorf("marriage event references unknown person %d", ev.Spouse2)
			}
			if spouse1 == spouse2 {
				graph.Anomalies = append(graph.Anomalies, common.Anomaly{
					Kind:   common.AnomalyDanglingSpouse,
					Reason: "marriage endpoints resolve to the same person; edge dropped",
				})
				continue
			}
			graph.Marriages = append(graph.Marriages, common.Marriage{
				Spouse1ID:    spouse1,
				Spouse2ID:    spouse2,
				Ordinal:      ev.Ordinal,
				IsRemarriage: ev.IsRemarriage,
			})

		case EventParentChild:
			parent, ok := ids[ev.Parent]
			if !ok {
				return nil, fmt.Errorf("parent-child event references unknown person %d", ev.Parent)
			}
			child, ok := ids[ev.Child]
			if !ok {
				return nil, fmt.Errorf("parent-child event references unknown person %d", ev.Child)
			}
			graph.ParentChild = append(graph.ParentChild, common.ParentChild{
				ParentID: parent,
				ChildID:  child,
			})

		case EventAnomaly:
			graph.Anomalies = append(graph.Anomalies, ev.Anomaly)
		}
	}

	return graph, nil
}
