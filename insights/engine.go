package insights

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"salesintel/charts"
	"salesintel/guardrails"
	"salesintel/logger"
	"salesintel/models"
	"salesintel/narrative"
	"salesintel/telemetry"
)

// Engine answers free-text questions from one session.
type Engine struct {
	session  *Session
	composer *narrative.Composer
	log      *logger.Entry
}

// NewEngine binds a composer to a session. A nil composer answers from
// templates only.
func NewEngine(s *Session, c *narrative.Composer) *Engine {
	if c == nil {
		c = narrative.NewComposer()
	}
	return &Engine{
		session:  s,
		composer: c,
		log:      logger.GetLogger().WithComponent("insights"),
	}
}

// Session returns the snapshot the engine answers from.
func (e *Engine) Session() *Session { return e.session }

// Ask classifies query and, when it is in scope, composes the narrative and
// selects the supporting charts. Out-of-scope questions return
// models.ErrUnrecognizedIntent and nothing else is computed.
func (e *Engine) Ask(ctx context.Context, query string) (*models.InsightResponse, error) {
	query = strings.TrimSpace(query)
	intent := guardrails.DetectIntent(query)
	if intent == models.IntentNone {
		telemetry.RecordRejectedQuery()
		e.log.WithFields(logger.Fields{"query": query}).Info("question outside supported scope")
		return nil, fmt.Errorf("%w: %q", models.ErrUnrecognizedIntent, query)
	}
	telemetry.RecordQuery(string(intent))

	result := e.composer.Compose(ctx, query, intent, e.session.NarrativeInput())
	specs := charts.Route(intent, e.session.ChartInput())

	e.log.WithFields(logger.Fields{
		"intent":        intent,
		"source":        result.Source,
		"fallback_used": result.FallbackUsed,
		"charts":        len(specs),
	}).Debug("question answered")

	return &models.InsightResponse{
		SessionID:    e.session.ID,
		Query:        query,
		Intent:       intent,
		Narrative:    result.Narrative,
		Source:       result.Source,
		FallbackUsed: result.FallbackUsed,
		Charts:       specs,
		Health:       e.session.Health,
	}, nil
}

// Charts returns the charts for a named intent without composing a narrative.
func (e *Engine) Charts(intent models.Intent) ([]models.ChartSpec, error) {
	if !guardrails.IsSupported(intent) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnrecognizedIntent, intent)
	}
	return charts.Route(intent, e.session.ChartInput()), nil
}

var (
	mu      sync.RWMutex
	current *Engine
)

// SetCurrent publishes the process-wide engine used by the HTTP handlers.
func SetCurrent(e *Engine) {
	mu.Lock()
	defer mu.Unlock()
	current = e
}

// Current returns the process-wide engine, or nil before startup completes.
func Current() *Engine {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
