package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"salesintel/logger"
	"salesintel/models"
	"salesintel/telemetry"
)

// DefaultTimeout bounds a delegated call when none is configured.
const DefaultTimeout = 8 * time.Second

var errRateLimited = errors.New("narrative rate limit exceeded")

// Result is a composed narrative and the path that produced it.
type Result struct {
	Narrative    models.Narrative `json:"narrative"`
	Source       string           `json:"source"`
	FallbackUsed bool             `json:"fallback_used"`
}

// Composer answers with the generator when one is set and falls back to the
// deterministic templates on any failure. It never returns an error.
type Composer struct {
	generator Generator
	limiter   *rate.Limiter
	timeout   time.Duration
	log       *logger.Entry
}

// Option configures a Composer.
type Option func(*Composer)

// WithGenerator enables the delegated path.
func WithGenerator(g Generator) Option {
	return func(c *Composer) { c.generator = g }
}

// WithTimeout bounds each delegated call.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps delegated calls to rps with the given burst. Calls over
// the limit fall back immediately instead of waiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Composer) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewComposer builds a Composer. Without WithGenerator it is deterministic only.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		timeout: DefaultTimeout,
		log:     logger.GetLogger().WithComponent("narrative"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delegating reports whether the composer will try the generator first.
func (c *Composer) Delegating() bool { return c.generator != nil }

// Compose answers query for intent from in.
func (c *Composer) Compose(ctx context.Context, query string, intent models.Intent, in Input) Result {
	if c.generator == nil {
		telemetry.RecordNarrative(models.SourceDeterministic)
		return Result{Narrative: Deterministic(intent, in), Source: models.SourceDeterministic}
	}

	n, err := c.delegate(ctx, query, intent, in)
	if err != nil {
		c.log.WithError(err).WithFields(logger.Fields{"intent": intent}).Warn("narrative service failed, using deterministic fallback")
		telemetry.RecordNarrative(models.SourceFallback)
		return Result{Narrative: Deterministic(intent, in), Source: models.SourceFallback, FallbackUsed: true}
	}

	telemetry.RecordNarrative(models.SourceDelegated)
	return Result{Narrative: n, Source: models.SourceDelegated}
}

type generation struct {
	text string
	err  error
}

func (c *Composer) delegate(ctx context.Context, query string, intent models.Intent, in Input) (models.Narrative, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return models.Narrative{}, fmt.Errorf("%w: %v", models.ErrNarrativeService, errRateLimited)
	}

	prompt, err := BuildPrompt(query, NewRequest(intent, in))
	if err != nil {
		return models.Narrative{}, fmt.Errorf("%w: %v", models.ErrNarrativeService, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.generate(ctx, prompt)
	if err != nil {
		telemetry.ObserveNarrativeLatency(time.Since(start).Seconds(), "error")
		return models.Narrative{}, fmt.Errorf("%w: %v", models.ErrNarrativeService, err)
	}

	n, err := ParseResponse(text)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	telemetry.ObserveNarrativeLatency(time.Since(start).Seconds(), outcome)
	return n, err
}

// generate returns when the generator answers or ctx is done, whichever is
// first. A generator that ignores ctx is left to finish on its own.
func (c *Composer) generate(ctx context.Context, prompt string) (string, error) {
	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: fmt.Errorf("generator panic: %v", r)}
			}
		}()
		text, err := c.generator.Generate(ctx, prompt)
		done <- generation{text: text, err: err}
	}()

	select {
	case g := <-done:
		if g.err == nil && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return g.text, g.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
