package answer

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/pharmaintellect/ragengine/model"
)

// citationRe matches bracketed chunk ids like [pubmed_12345678:2].
var citationRe = regexp.MustCompile(`\[([A-Za-z0-9][A-Za-z0-9_.-]*:\d+)\]`)

// Assembler validates the generated answer's citations against the set of
// retrieved chunks.
type Assembler struct {
	log *slog.Logger
}

// NewAssembler creates an assembler logging grounding violations through
// the given logger.
func NewAssembler(log *slog.Logger) *Assembler {
	return &Assembler{log: log}
}

// Assemble extracts citation markers from the answer, keeps those that
// reference a retrieved chunk (first occurrence order, deduplicated) and
// logs the rest as grounding violations. A blank answer sets the no-answer
// flag.
func (a *Assembler) Assemble(answer string, retrieved []model.RetrievedChunk) (citations []string, noAnswer bool) {
	retrievedIDs := make(map[string]bool, len(retrieved))
	for _, chunk := range retrieved {
		retrievedIDs[chunk.Record.ID] = true
	}

	seen := make(map[string]bool)
	for _, match := range citationRe.FindAllStringSubmatch(answer, -1) {
		id := match[1]
		if seen[id] {
			continue
		}
		seen[id] = true

		if !retrievedIDs[id] {
			a.log.Warn("Dropping ungrounded citation", slog.String("id", id))
			continue
		}
		citations = append(citations, id)
	}

	return citations, strings.TrimSpace(answer) == ""
}
