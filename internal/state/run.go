package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nexus/pkg/models"
)

// Run is one completed run record.
type Run struct {
	ID            string                         `json:"id"`
	Query         string                         `json:"query"`
	UserID        string                         `json:"user_id"`
	UserRole      string                         `json:"user_role"`
	Routing       models.RoutingDecision         `json:"routing"`
	Specialists   []models.SpecialistName        `json:"specialists"`
	FinalResponse string                         `json:"final_response"`
	Status        models.RunStatus               `json:"status"`
	Degraded      bool                           `json:"degraded"`
	Iterations    map[models.SpecialistName]int  `json:"iterations"`
	TokensIn      int64                          `json:"tokens_in"`
	TokensOut     int64                          `json:"tokens_out"`
	StartedAt     time.Time                      `json:"started_at"`
	Duration      time.Duration                  `json:"duration"`
}

// SaveRun inserts a completed run record.
func (db *DB) SaveRun(r *Run) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	specialists, err := json.Marshal(r.Specialists)
	if err != nil {
		return fmt.Errorf("encode specialists: %w", err)
	}
	iterations, err := json.Marshal(r.Iterations)
	if err != nil {
		return fmt.Errorf("encode iterations: %w", err)
	}

	degraded := 0
	if r.Degraded {
		degraded = 1
	}

	_, err = db.conn.Exec(`
		INSERT INTO runs (id, query, user_id, user_role, routing, specialists,
			final_response, status, degraded, iterations, tokens_in, tokens_out,
			started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Query, r.UserID, r.UserRole, string(r.Routing), string(specialists),
		r.FinalResponse, string(r.Status), degraded, string(iterations),
		r.TokensIn, r.TokensOut, formatTime(r.StartedAt), r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when not found.
func (db *DB) GetRun(id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, query, user_id, user_role, routing, specialists,
			final_response, status, degraded, iterations, tokens_in, tokens_out,
			started_at, duration_ms
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, query, user_id, user_role, routing, specialists,
			final_response, status, degraded, iterations, tokens_in, tokens_out,
			started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run         Run
		routing     string
		specialists string
		status      string
		degraded    int
		iterations  string
		startedAt   string
		durationMS  int64
	)

	err := s.Scan(&run.ID, &run.Query, &run.UserID, &run.UserRole, &routing,
		&specialists, &run.FinalResponse, &status, &degraded, &iterations,
		&run.TokensIn, &run.TokensOut, &startedAt, &durationMS)
	if err != nil {
		return nil, err
	}

	run.Routing = models.RoutingDecision(routing)
	run.Status = models.RunStatus(status)
	run.Degraded = degraded != 0
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(specialists), &run.Specialists); err != nil {
		return nil, fmt.Errorf("decode specialists: %w", err)
	}
	if err := json.Unmarshal([]byte(iterations), &run.Iterations); err != nil {
		return nil, fmt.Errorf("decode iterations: %w", err)
	}
	run.StartedAt, _ = parseTime(startedAt)

	return &run, nil
}
