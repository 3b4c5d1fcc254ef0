// Package history keeps an append-only log of answered queries in SQLite.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pharmaintellect/ragengine/helper"
	"github.com/pharmaintellect/ragengine/model"
	_ "modernc.org/sqlite"
)

// historyTimeLayout is a fixed-width UTC timestamp. The fraction is always
// nine digits, so lexical order of the stored strings matches
// chronological order and ORDER BY created_at stays exact.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one answered query as stored in the log. Retrieved chunk ids
// are kept instead of the full chunks; the store remains the source of
// chunk content.
type Entry struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	Citations    []string  `json:"citations"`
	RetrievedIDs []string  `json:"retrieved_ids"`
	NoAnswer     bool      `json:"no_answer"`
	CreatedAt    time.Time `json:"created_at"`
}

// Log is the append-only query history. Entries are never updated or
// deleted.
type Log struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the history database at path.
func Open(path string, log *slog.Logger) (*Log, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, helper.NewError("open history database", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS query_history (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			citations TEXT NOT NULL,
			retrieved_ids TEXT NOT NULL,
			no_answer INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`); err != nil {
		db.Close()
		return nil, helper.NewError("create history table", err)
	}

	log.Info("Opened query history", slog.String("path", path))
	return &Log{db: db, log: log}, nil
}

// Append writes one result to the log.
func (l *Log) Append(result model.QueryResult) error {
	citations, err := json.Marshal(emptyIfNil(result.Citations))
	if err != nil {
		return helper.NewError("append history", err)
	}

	retrievedIDs := make([]string, 0, len(result.Retrieved))
	for _, chunk := range result.Retrieved {
		retrievedIDs = append(retrievedIDs, chunk.Record.ID)
	}
	retrieved, err := json.Marshal(retrievedIDs)
	if err != nil {
		return helper.NewError("append history", err)
	}

	_, err = l.db.Exec(`
		INSERT INTO query_history (id, question, answer, citations, retrieved_ids, no_answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);`,
		result.ID.String(), result.Question, result.Answer,
		string(citations), string(retrieved), boolToInt(result.NoAnswer),
		result.CreatedAt.UTC().Format(historyTimeLayout))
	if err != nil {
		return helper.NewError("append history", err)
	}
	return nil
}

// List returns entries most recent first. Offset skips past the newest
// entries for paging.
func (l *Log) List(limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		return nil, helper.NewError("list history", fmt.Errorf("limit must be positive, got %d", limit))
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := l.db.Query(`
		SELECT id, question, answer, citations, retrieved_ids, no_answer, created_at
		FROM query_history
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?;`, limit, offset)
	if err != nil {
		return nil, helper.NewError("list history", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var citations, retrieved, createdAt string
		var noAnswer int
		if err := rows.Scan(&entry.ID, &entry.Question, &entry.Answer, &citations, &retrieved, &noAnswer, &createdAt); err != nil {
			return nil, helper.NewError("scan history", err)
		}
		if err := json.Unmarshal([]byte(citations), &entry.Citations); err != nil {
			return nil, helper.NewError("decode citations", err)
		}
		if err := json.Unmarshal([]byte(retrieved), &entry.RetrievedIDs); err != nil {
			return nil, helper.NewError("decode retrieved ids", err)
		}
		entry.NoAnswer = noAnswer != 0
		entry.CreatedAt, err = time.Parse(historyTimeLayout, createdAt)
		if err != nil {
			return nil, helper.NewError("parse history timestamp", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("list history", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
