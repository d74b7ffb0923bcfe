package common

// Graph is the closed collection of person and relationship records produced
// by one ingestion run, together with every anomaly recorded while building
// it. It is directed for parent-child edges and an undirected multigraph for
// marriages, layered on the same set of persons.
//
// A graph is built once per ingestion and treated as immutable afterwards:
// traversal never mutates it, and a re-ingestion produces a new Graph value
// rather than changing an existing one in place.
type Graph struct {
	IngestionID string        `json:"ingestion_id"`
	LineCount   int           `json:"line_count"`
	Persons     []Person      `json:"persons"`
	Aliases     []Alias       `json:"aliases"`
	Marriages   []Marriage    `json:"marriages"`
	ParentChild []ParentChild `json:"parent_child"`
	Anomalies   []Anomaly     `json:"anomalies"`
}

// Person represents one recorded individual appearance in the source
// transcript. The same historical individual may appear as several Person
// records; identity resolution is deliberately not attempted here.
//
// The identifier is assigned once at build time and never reused. The
// generation number, once assigned, never changes. SourceLines points back
// at the transcript line(s) the record was read from.
type Person struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Generation  int    `json:"generation"`
	BirthYear   *int   `json:"birth_year"`
	BirthCirca  bool   `json:"birth_circa"`
	DeathYear   *int   `json:"death_year"`
	DeathCirca  bool   `json:"death_circa"`
	Notes       string `json:"notes"`
	SourceLines []int  `json:"source_lines"`
}

// Alias maps a person to an alternate name form found on the same source
// line, such as a quoted nickname or a parenthetical maiden name.
type Alias struct {
	PersonID  string `json:"person_id"`
	AliasName string `json:"alias_name"`
}

// Marriage is an unordered edge between two distinct persons. Spouse1 is the
// anchor person the spouse line attached to and Spouse2 the person the line
// introduced; the distinction is stable but carries no semantic weight.
//
// Ordinal is the 1-based position of this marriage among the anchor's
// marriages, in source order. IsRemarriage records that the source marked
// the line with the remarriage marker rather than the plain spouse marker.
type Marriage struct {
	Spouse1ID    string `json:"spouse1_id"`
	Spouse2ID    string `json:"spouse2_id"`
	Ordinal      int    `json:"ordinal"`
	IsRemarriage bool   `json:"is_remarriage"`
}

// ParentChild is a directed edge from a parent person to a child person.
// In a clean parse the child's generation is the parent's generation plus
// one; edges violating that are still created but flagged as anomalies.
type ParentChild struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

// AnomalyKind classifies a recorded deviation from the expected source
// structure.
type AnomalyKind string

const (
	AnomalyUnparseableLine     AnomalyKind = "unparseable_line"
	AnomalyGenerationInvariant AnomalyKind = "generation_invariant_violation"
	AnomalyDanglingSpouse      AnomalyKind = "dangling_spouse_reference"
	AnomalyCycleDetected       AnomalyKind = "cycle_detected"
)

// Anomaly records one deviation encountered while parsing or traversing.
// Anomalies never abort an ingestion; they are collected so the full batch
// can be reviewed afterwards. Line is the 1-based transcript line number,
// or zero for anomalies detected at traversal time.
type Anomaly struct {
	Line   int         `json:"line"`
	Kind   AnomalyKind `json:"kind"`
	Reason string      `json:"reason"`
}
