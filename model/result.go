package model

import (
	"time"

	"github.com/google/uuid"
)

// QueryResult is the answer to one research question. Appended to the
// history log once per query and immutable thereafter. Citations only ever
// reference ids present in Retrieved.
type QueryResult struct {
	ID        uuid.UUID        `json:"id"`
	Question  string           `json:"question"`
	Retrieved []RetrievedChunk `json:"retrieved"`
	Answer    string           `json:"answer"`
	Citations []string         `json:"citations,omitempty"`
	NoAnswer  bool             `json:"no_answer,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// RetrievedIDs returns the set of chunk ids in the retrieval window.
func (r *QueryResult) RetrievedIDs() map[string]bool {
	ids := make(map[string]bool, len(r.Retrieved))
	for _, rc := range r.Retrieved {
		ids[rc.Record.ID] = true
	}
	return ids
}

// IngestReport summarizes one ingestion run. Malformed documents are
// skipped, documents whose embedding batches exhausted their retries are
// recorded as failed; neither aborts the run.
type IngestReport struct {
	Documents        int      `json:"documents"`
	Chunks           int      `json:"chunks"`
	SkippedDocuments int      `json:"skipped_documents"`
	FailedDocuments  int      `json:"failed_documents"`
	FailedDocIDs     []string `json:"failed_doc_ids,omitempty"`
}
