// Package store persists finished grading reports in sqlite so past runs can
// be listed and retrieved through the API.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sinavlab/grader/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL DEFAULT '',
		student_name TEXT NOT NULL DEFAULT '',
		source_file TEXT NOT NULL DEFAULT '',
		policy TEXT NOT NULL,
		total_score REAL NOT NULL DEFAULT 0,
		correct INTEGER NOT NULL DEFAULT 0,
		wrong INTEGER NOT NULL DEFAULT 0,
		blank INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReportRecord is one stored grading run. Report is only populated by
// GetReport; listings carry the summary columns alone.
type ReportRecord struct {
	ID             int64            `json:"id"`
	StudentID      string           `json:"student_id"`
	StudentName    string           `json:"student_name"`
	SourceFile     string           `json:"source_file"`
	Policy         string           `json:"policy"`
	TotalScore     float64          `json:"total_score"`
	Correct        int              `json:"correct"`
	Wrong          int              `json:"wrong"`
	Blank          int              `json:"blank"`
	TotalQuestions int              `json:"total_questions"`
	Report         model.ExamReport `json:"report,omitzero"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SaveReport stores a finished grading run.
func (s *Store) SaveReport(rec ReportRecord) (int64, error) {
	reportJSON, err := json.Marshal(rec.Report)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO reports (student_id, student_name, source_file, policy,
			total_score, correct, wrong, blank, total_questions, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StudentID, rec.StudentName, rec.SourceFile, rec.Policy,
		rec.TotalScore, rec.Correct, rec.Wrong, rec.Blank, rec.TotalQuestions,
		string(reportJSON), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetReport returns a stored run including the full report document, or nil
// when no such run exists.
func (s *Store) GetReport(id int64) (*ReportRecord, error) {
	var rec ReportRecord
	var reportJSON string
	err := s.db.QueryRow(
		`SELECT id, student_id, student_name, source_file, policy,
			total_score, correct, wrong, blank, total_questions, report_json, created_at
		 FROM reports WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.SourceFile, &rec.Policy,
		&rec.TotalScore, &rec.Correct, &rec.Wrong, &rec.Blank, &rec.TotalQuestions,
		&reportJSON, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(reportJSON), &rec.Report); err != nil {
		return nil, fmt.Errorf("unmarshal report %d: %w", id, err)
	}
	return &rec, nil
}

// ListReports returns all stored runs, newest first, without the report body.
func (s *Store) ListReports() ([]ReportRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, student_name, source_file, policy,
			total_score, correct, wrong, blank, total_questions, created_at
		 FROM reports ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.SourceFile, &rec.Policy,
			&rec.TotalScore, &rec.Correct, &rec.Wrong, &rec.Blank, &rec.TotalQuestions,
			&rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ReportCount returns the number of stored runs.
func (s *Store) ReportCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}
