// Package insights builds the per-session analytics snapshot and answers
// questions against it.
package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"salesintel/analytics"
	"salesintel/charts"
	"salesintel/logger"
	"salesintel/models"
	"salesintel/narrative"
	"salesintel/telemetry"
)

// DealSource loads the raw deal table.
type DealSource interface {
	Load(ctx context.Context, source string) ([]models.Deal, error)
}

// Session is the immutable result of one load. Nothing in it changes after
// Build returns, so it is safe to share across requests.
type Session struct {
	ID       string               `json:"session_id"`
	Source   string               `json:"source"`
	LoadedAt time.Time            `json:"loaded_at"`
	Deals    []models.Deal        `json:"-"`
	Scored   []models.ScoredDeal  `json:"-"`
	Metrics  models.MetricsBundle `json:"metrics"`
	Risk     models.RiskSummary   `json:"risk_summary"`
	Health   models.HealthScore   `json:"health"`
}

// Build loads source and computes metrics, risk and health. Any failure
// aborts the whole session.
func Build(ctx context.Context, loader DealSource, source string) (*Session, error) {
	deals, err := loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	s, err := NewSession(ctx, deals)
	if err != nil {
		return nil, err
	}
	s.Source = source

	logger.GetLogger().WithComponent("insights").WithFields(logger.Fields{
		"session_id":   s.ID,
		"source":       source,
		"deals":        len(deals),
		"health_score": s.Health.Score,
		"health_label": s.Health.Label,
	}).Info("session built")
	return s, nil
}

// NewSession computes a session from already loaded deals. Metrics and risk
// depend only on the deals and run concurrently; health waits for both.
func NewSession(ctx context.Context, deals []models.Deal) (*Session, error) {
	var (
		metrics models.MetricsBundle
		scored  []models.ScoredDeal
		risk    models.RiskSummary
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := analytics.ComputeMetrics(deals)
		if err != nil {
			return fmt.Errorf("compute metrics: %w", err)
		}
		metrics = m
		return nil
	})
	g.Go(func() error {
		sd, err := analytics.ScoreRisk(deals)
		if err != nil {
			return fmt.Errorf("score risk: %w", err)
		}
		sum, err := analytics.SummarizeRisk(sd)
		if err != nil {
			return fmt.Errorf("summarize risk: %w", err)
		}
		scored, risk = sd, sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	health := analytics.ComputeHealth(metrics, risk)
	telemetry.SetSessionGauges(len(deals), health.Score, risk.HighRiskPercentage)

	return &Session{
		ID:       uuid.NewString(),
		LoadedAt: time.Now().UTC(),
		Deals:    deals,
		Scored:   scored,
		Metrics:  metrics,
		Risk:     risk,
		Health:   health,
	}, nil
}

// NarrativeInput is the view of the session a narrative draws on.
func (s *Session) NarrativeInput() narrative.Input {
	return narrative.Input{Metrics: s.Metrics, Risk: s.Risk, Health: s.Health}
}

// ChartInput is the view of the session charts draw on.
func (s *Session) ChartInput() charts.Input {
	return charts.Input{Metrics: s.Metrics, Scored: s.Scored, Health: s.Health}
}
