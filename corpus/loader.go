// Package corpus loads the source CSV exports (PubMed abstracts and
// ClinicalTrials.gov studies) into documents ready for ingestion.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
)

// LoadLiteratureCSV reads a PubMed export with the columns pmid, title,
// abstract and url. Rows without a pmid or abstract are skipped and
// counted.
func LoadLiteratureCSV(path string) ([]model.Document, int, error) {
	return loadCSV(path, func(row map[string]string) (model.Document, bool) {
		pmid := strings.TrimSpace(row["pmid"])
		abstract := strings.TrimSpace(row["abstract"])
		if pmid == "" || abstract == "" {
			return model.Document{}, false
		}

		return model.Document{
			ID:         "pubmed_" + pmid,
			SourceType: model.SourceTypeLiterature,
			Title:      strings.TrimSpace(row["title"]),
			Body:       abstract,
			Metadata: model.Metadata{
				"pmid": pmid,
				"url":  strings.TrimSpace(row["url"]),
			},
		}, true
	})
}

// LoadTrialsCSV reads a ClinicalTrials.gov export with the columns nct_id,
// title, condition, status, phase and url. The document body is composed
// from the study fields since trial records carry no abstract. Rows
// without an nct_id or title are skipped and counted.
func LoadTrialsCSV(path string) ([]model.Document, int, error) {
	return loadCSV(path, func(row map[string]string) (model.Document, bool) {
		nctID := strings.TrimSpace(row["nct_id"])
		title := strings.TrimSpace(row["title"])
		if nctID == "" || title == "" {
			return model.Document{}, false
		}

		body := fmt.Sprintf("%s. Condition: %s. Status: %s. Phase: %s.",
			title,
			orUnknown(row["condition"]),
			orUnknown(row["status"]),
			orUnknown(row["phase"]))

		return model.Document{
			ID:         "trial_" + nctID,
			SourceType: model.SourceTypeTrial,
			Title:      title,
			Body:       body,
			Metadata: model.Metadata{
				"nct_id":    nctID,
				"condition": strings.TrimSpace(row["condition"]),
				"status":    strings.TrimSpace(row["status"]),
				"phase":     strings.TrimSpace(row["phase"]),
				"url":       strings.TrimSpace(row["url"]),
			},
		}, true
	})
}

// loadCSV reads all rows of a headered CSV file through convert. Rows the
// converter rejects are counted, not fatal.
func loadCSV(path string, convert func(row map[string]string) (model.Document, bool)) ([]model.Document, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, helper.NewError("open corpus file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, helper.NewError("read corpus header", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var docs []model.Document
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, helper.NewError("read corpus row", err)
		}

		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}

		doc, ok := convert(row)
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	return docs, skipped, nil
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return s
}
