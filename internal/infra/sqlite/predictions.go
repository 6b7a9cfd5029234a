package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ─── Prediction Operations ──────────────────────────────────────────────────

// JSON payload shapes for the prediction blob columns.
type chartPayload struct {
	Chart    domain.BirthChart      `json:"chart"`
	Analysis domain.ElementAnalysis `json:"analysis"`
}

type fortunePayload struct {
	Fortune  domain.FortuneScore    `json:"fortune"`
	FengShui domain.FengShuiAdvice  `json:"feng_shui"`
}

// CreatePrediction stores a completed reading and spends one credit in the
// same transaction. The decrement is conditional on credits remaining, so
// two concurrent readings against a single credit cannot both commit; the
// loser gets domain.ErrInsufficientCredits. Returns the credits left after
// the spend.
func (db *DB) CreatePrediction(rec *domain.PredictionRecord) (int, error) {
	chartJSON, err := json.Marshal(chartPayload{Chart: rec.Chart, Analysis: rec.Analysis})
	if err != nil {
		return 0, fmt.Errorf("marshal chart: %w", err)
	}
	fortuneJSON, err := json.Marshal(fortunePayload{Fortune: rec.Fortune, FengShui: rec.FengShui})
	if err != nil {
		return 0, fmt.Errorf("marshal fortune: %w", err)
	}
	recJSON, err := json.Marshal(rec.Recommendation)
	if err != nil {
		return 0, fmt.Errorf("marshal recommendation: %w", err)
	}
	narrJSON, err := json.Marshal(rec.Narrative)
	if err != nil {
		return 0, fmt.Errorf("marshal narrative: %w", err)
	}

	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE users SET credits = credits - 1, updated_at = datetime('now')
		WHERE id = ? AND credits > 0
	`, rec.UserID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, domain.ErrInsufficientCredits
	}

	ins, err := tx.Exec(`
		INSERT INTO predictions (user_id, birth_date, birth_time, birth_location, chart_json, fortune_json, recommendation_json, narrative_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.BirthDate, rec.BirthTime, rec.BirthLocation, string(chartJSON), string(fortuneJSON), string(recJSON), string(narrJSON))
	if err != nil {
		return 0, err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return 0, err
	}

	var remaining int
	var createdStr string
	if err := tx.QueryRow(`SELECT credits FROM users WHERE id = ?`, rec.UserID).Scan(&remaining); err != nil {
		return 0, err
	}
	if err := tx.QueryRow(`SELECT created_at FROM predictions WHERE id = ?`, id).Scan(&createdStr); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	rec.ID = id
	rec.CreatedAt = parseTime(createdStr)
	return remaining, nil
}

// PredictionByID fetches one reading scoped to its owner.
func (db *DB) PredictionByID(userID, id int64) (*domain.PredictionRecord, error) {
	row := db.db.QueryRow(`
		SELECT id, user_id, birth_date, birth_time, birth_location, chart_json, fortune_json, recommendation_json, narrative_json, created_at
		FROM predictions WHERE id = ? AND user_id = ?
	`, id, userID)
	rec, err := scanPrediction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPredictionNotFound
	}
	return rec, err
}

// ListPredictions returns a user's readings, newest first.
func (db *DB) ListPredictions(userID int64) ([]domain.PredictionRecord, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, birth_date, birth_time, birth_location, chart_json, fortune_json, recommendation_json, narrative_json, created_at
		FROM predictions WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

func scanPrediction(scan func(dest ...any) error) (*domain.PredictionRecord, error) {
	var rec domain.PredictionRecord
	var chartJSON, fortuneJSON, recJSON, narrJSON, createdStr string
	err := scan(&rec.ID, &rec.UserID, &rec.BirthDate, &rec.BirthTime, &rec.BirthLocation,
		&chartJSON, &fortuneJSON, &recJSON, &narrJSON, &createdStr)
	if err != nil {
		return nil, err
	}

	var chart chartPayload
	if err := json.Unmarshal([]byte(chartJSON), &chart); err != nil {
		return nil, fmt.Errorf("unmarshal chart: %w", err)
	}
	var fortune fortunePayload
	if err := json.Unmarshal([]byte(fortuneJSON), &fortune); err != nil {
		return nil, fmt.Errorf("unmarshal fortune: %w", err)
	}
	if err := json.Unmarshal([]byte(recJSON), &rec.Recommendation); err != nil {
		return nil, fmt.Errorf("unmarshal recommendation: %w", err)
	}
	if err := json.Unmarshal([]byte(narrJSON), &rec.Narrative); err != nil {
		return nil, fmt.Errorf("unmarshal narrative: %w", err)
	}

	rec.Chart = chart.Chart
	rec.Analysis = chart.Analysis
	rec.Fortune = fortune.Fortune
	rec.FengShui = fortune.FengShui
	rec.CreatedAt = parseTime(createdStr)
	return &rec, nil
}
