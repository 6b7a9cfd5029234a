// Package prediction runs the reading pipeline: credit check, chart
// derivation, element analysis, fortune scoring, feng shui advice,
// narrative generation, and crystal recommendation, ending in an atomic
// persist-and-spend.
package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pzyt/crystal-healing/internal/app/bazi"
	"github.com/pzyt/crystal-healing/internal/app/narrative"
	"github.com/pzyt/crystal-healing/internal/app/recommend"
	"github.com/pzyt/crystal-healing/internal/domain"
	"github.com/pzyt/crystal-healing/internal/infra/sqlite"
)

var (
	readingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crystal_readings_total",
		Help: "Completed readings persisted to the store.",
	})
	readingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crystal_readings_rejected_total",
		Help: "Readings rejected before completion, by reason.",
	}, []string{"reason"})
)

// Service owns the end-to-end reading pipeline.
type Service struct {
	store *sqlite.DB
	narr  *narrative.Generator
	log   *zap.Logger
}

// NewService wires the pipeline.
func NewService(store *sqlite.DB, narr *narrative.Generator, log *zap.Logger) *Service {
	return &Service{store: store, narr: narr, log: log}
}

// Result is a completed reading plus the caller's remaining balance.
type Result struct {
	Record           *domain.PredictionRecord
	RemainingCredits int
}

// Predict runs one reading for the user. Credits are checked up front so a
// broke caller gets domain.ErrInsufficientCredits before any derivation
// work, and spent atomically with the insert so a concurrent reading cannot
// overdraw.
func (s *Service) Predict(ctx context.Context, userID int64, birthDate, birthTime, birthLocation string) (*Result, error) {
	user, err := s.store.UserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Credits <= 0 {
		readingsRejected.WithLabelValues("no_credits").Inc()
		return nil, domain.ErrInsufficientCredits
	}

	chart, err := bazi.DeriveChart(birthDate, birthTime, birthLocation)
	if err != nil {
		readingsRejected.WithLabelValues("bad_input").Inc()
		return nil, err
	}
	analysis := bazi.AnalyzeElements(chart)
	fortune := bazi.ScoreFortune(chart, analysis)
	fengShui := bazi.FengShuiAdvice(analysis)

	narr := s.narr.Generate(ctx, chart, analysis, fortune, user.DisplayName)

	catalog, err := s.store.ListCrystals()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	bundle := recommend.Recommend(analysis, fortune, catalog, narr)

	rec := &domain.PredictionRecord{
		UserID:         userID,
		BirthDate:      birthDate,
		BirthTime:      birthTime,
		BirthLocation:  birthLocation,
		Chart:          chart,
		Analysis:       analysis,
		Fortune:        fortune,
		FengShui:       fengShui,
		Recommendation: bundle,
		Narrative:      narr,
	}
	remaining, err := s.store.CreatePrediction(rec)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			readingsRejected.WithLabelValues("no_credits").Inc()
		}
		return nil, err
	}

	readingsTotal.Inc()
	s.log.Info("reading completed",
		zap.Int64("user_id", userID),
		zap.Int64("prediction_id", rec.ID),
		zap.String("narrative_source", narr.Source),
		zap.Int("overall_score", fortune.Overall),
		zap.Int("remaining_credits", remaining))

	return &Result{Record: rec, RemainingCredits: remaining}, nil
}

// History returns the user's past readings, newest first.
func (s *Service) History(userID int64) ([]domain.PredictionRecord, error) {
	return s.store.ListPredictions(userID)
}

// Reading fetches one reading scoped to its owner.
func (s *Service) Reading(userID, id int64) (*domain.PredictionRecord, error) {
	return s.store.PredictionByID(userID, id)
}
