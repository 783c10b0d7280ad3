package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Record is one completed quiz attempt. Append is the only mutation the
// sink ever sees; rows are never updated or deleted.
type Record struct {
	UserID     int64
	Name       string
	Email      string
	Language   string
	Category   string
	Difficulty string
	Score      int
	Timestamp  time.Time
}

// ResultSink is the durable log of completed attempts. HasCompleted backs
// the duplicate-attempt check on /start; Append is attempted at most once
// per session and its failure degrades the conversation, never aborts it.
type ResultSink interface {
	HasCompleted(ctx context.Context, userID int64) (bool, error)
	Append(ctx context.Context, r Record) error
}

var headerRow = []interface{}{"User ID", "Name", "Email", "Language", "Category", "Difficulty", "Score", "Timestamp"}

// SheetsSink writes results to a Google spreadsheet, one row per attempt.
type SheetsSink struct {
	srv           *sheets.Service
	spreadsheetID string
}

// NewSheetsSink builds the Sheets client from service-account JSON and
// writes the header row if the sheet is empty. The header probe doubles
// as the startup credentials check: an unreachable sheet keeps the
// process from coming up.
func NewSheetsSink(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*SheetsSink, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	s := &SheetsSink{srv: srv, spreadsheetID: spreadsheetID}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SheetsSink) ensureHeader(ctx context.Context) error {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, "A1:H1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", s.spreadsheetID, err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	_, err = s.srv.Spreadsheets.Values.Append(s.spreadsheetID, "A1",
		&sheets.ValueRange{Values: [][]interface{}{headerRow}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

// HasCompleted scans the User ID column for the id.
func (s *SheetsSink) HasCompleted(ctx context.Context, userID int64) (bool, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, "A2:A").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to read user column: %w", err)
	}
	id := strconv.FormatInt(userID, 10)
	for _, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *SheetsSink) Append(ctx context.Context, r Record) error {
	row := []interface{}{
		strconv.FormatInt(r.UserID, 10),
		r.Name,
		r.Email,
		r.Language,
		r.Category,
		r.Difficulty,
		strconv.Itoa(r.Score),
		r.Timestamp.Format("2006-01-02 15:04:05"),
	}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, "A1",
		&sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append result row: %w", err)
	}
	return nil
}

// MemorySink keeps records in memory. Used by tests and local runs
// without spreadsheet access.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) HasCompleted(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemorySink) Append(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

// Records returns a copy of everything appended so far.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
