package model

// SourceType identifies which of the two modeled record shapes a document has.
type SourceType string

const (
	SourceTypeLiterature SourceType = "literature"
	SourceTypeTrial      SourceType = "trial"
)

// Label returns the human readable source label used in context blocks
// and citations shown to users.
func (s SourceType) Label() string {
	switch s {
	case SourceTypeLiterature:
		return "PubMed"
	case SourceTypeTrial:
		return "ClinicalTrials.gov"
	default:
		return string(s)
	}
}

// Document represents a source document delivered by the acquisition
// collaborator. Documents are immutable once ingested; ID is stable and
// derived from the source identifier (e.g. "pubmed_12345", "trial_NCT01").
type Document struct {
	ID         string     `json:"id"`
	SourceType SourceType `json:"source_type"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Metadata   Metadata   `json:"metadata,omitempty"`
}

// Valid reports whether the document carries the fields ingestion requires.
func (d *Document) Valid() bool {
	return d.ID != "" && d.Body != ""
}
