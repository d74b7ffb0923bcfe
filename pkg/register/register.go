// Package register parses OCR transcripts of genealogical register books
// into an entity graph. The pipeline is normalization, line classification,
// generation-stack linking, and graph building; every stage records what it
// could not understand as anomalies instead of failing the run.
package register

import (
	"strings"

	"github.com/kinbook/lineage/pkg/common"
)

// Parser runs the full pipeline over one transcript. A Parser is stateless
// across calls and safe to reuse; per-run state lives in the linker.
type Parser struct {
	builder *Builder
}

type NewParserParams struct {
	// IDGenerator overrides person identifier assignment. Nil means NanoID.
	IDGenerator IDFunc
}

func NewParser(params NewParserParams) *Parser {
	return &Parser{
		builder: NewBuilder(NewBuilderParams{IDGenerator: params.IDGenerator}),
	}
}

// ParseText ingests one transcript and returns the graph it encodes. Damaged
// input degrades into anomalies on the returned graph; an error here means
// identifier generation failed, never that the text was bad.
func (p *Parser) ParseText(text string) (*common.Graph, error) {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := NormalizeLines(raw)

	linker := NewLinker()
	for _, line := range lines {
		linker.Consume(ParseLine(line))
	}

	graph, err := p.builder.Build(linker.Events())
	if err != nil {
		return nil, err
	}
	graph.LineCount = len(lines)
	return graph, nil
}
