// Package answer builds the generation context, calls the language model
// and grounds the returned citations against the retrieved chunks.
package answer

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pharmaintellect/ragengine/model"
)

const blockSeparator = "\n\n"

// ContextBuilder assembles retrieved chunks into the bounded source block
// handed to the generator.
type ContextBuilder struct {
	budget int
	log    *slog.Logger
}

// NewContextBuilder creates a builder with a character budget.
func NewContextBuilder(budget int, log *slog.Logger) *ContextBuilder {
	return &ContextBuilder{budget: budget, log: log}
}

// Build renders chunks in ranking order into numbered source blocks,
// skipping near-duplicate chunks from the same document and stopping at
// the character budget. The best chunk is always included, truncated to
// the budget if necessary. Returns the context text and the chunks that
// made it in.
func (b *ContextBuilder) Build(chunks []model.RetrievedChunk) (string, []model.RetrievedChunk) {
	var blocks []string
	var included []model.RetrievedChunk
	total := 0

	for _, chunk := range chunks {
		if b.duplicatesIncluded(chunk, included) {
			b.log.Debug("Dropping overlapping chunk", slog.String("id", chunk.Record.ID))
			continue
		}

		block := renderBlock(len(included)+1, chunk)
		cost := len(block)
		if len(included) > 0 {
			cost += len(blockSeparator)
		}
		if total+cost > b.budget {
			if len(included) > 0 {
				break
			}
			block = truncateOnRuneBoundary(block, b.budget)
			cost = len(block)
		}

		blocks = append(blocks, block)
		included = append(included, chunk)
		total += cost
	}

	return strings.Join(blocks, blockSeparator), included
}

// truncateOnRuneBoundary cuts s to at most n bytes without splitting a
// multi-byte rune.
func truncateOnRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func renderBlock(n int, chunk model.RetrievedChunk) string {
	rec := chunk.Record
	label := model.SourceType(rec.Metadata["source_type"]).Label()
	header := fmt.Sprintf("Source %d [%s] (%s)", n, rec.ID, label)
	if title := rec.Metadata["title"]; title != "" {
		header += ": " + title
	}
	return header + "\n" + rec.Text
}

// duplicatesIncluded reports whether the candidate covers mostly the same
// character range of the same document as an already-included chunk. Two
// ranges duplicate each other when their overlap exceeds half the shorter
// range.
func (b *ContextBuilder) duplicatesIncluded(candidate model.RetrievedChunk, included []model.RetrievedChunk) bool {
	candDoc := candidate.Record.Metadata["doc_id"]
	candStart, candEnd, ok := charRange(candidate.Record.Metadata)
	if candDoc == "" || !ok {
		return false
	}

	for _, prev := range included {
		if prev.Record.Metadata["doc_id"] != candDoc {
			continue
		}
		prevStart, prevEnd, ok := charRange(prev.Record.Metadata)
		if !ok {
			continue
		}

		overlap := min(candEnd, prevEnd) - max(candStart, prevStart)
		shorter := min(candEnd-candStart, prevEnd-prevStart)
		if shorter > 0 && overlap*2 > shorter {
			return true
		}
	}
	return false
}

func charRange(meta model.Metadata) (int, int, bool) {
	start, err := strconv.Atoi(meta["char_start"])
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(meta["char_end"])
	if err != nil {
		return 0, 0, false
	}
	return start, end, end > start
}
