// Package composer is the dialogue engine: it routes each user turn through
// the intent classifiers, resolves the report, extracts and merges
// parameters, computes the deterministic status code and renders the reply.
package composer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/reportflow/abbrev"
	"github.com/sweetpotato0/reportflow/analytics"
	"github.com/sweetpotato0/reportflow/classify"
	"github.com/sweetpotato0/reportflow/conversation"
	"github.com/sweetpotato0/reportflow/errors"
	"github.com/sweetpotato0/reportflow/extract"
	"github.com/sweetpotato0/reportflow/greet"
	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/middleware"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/pkg/telemetry"
	"github.com/sweetpotato0/reportflow/pool"
	"github.com/sweetpotato0/reportflow/report"
	"github.com/sweetpotato0/reportflow/tokenizer"
)

// Action is the backend call fired when a request is confirmed. It is only
// ever invoked with complete, validated parameters.
type Action func(ctx context.Context, params report.Params) error

// Result is the outcome of one processed turn. Report and Params are only
// populated once the user confirms; until then the pending request lives in
// conversation state and is mirrored in Fields.
type Result struct {
	Response string
	Report   report.ID
	Params   *report.Params
	Status   report.Status
	Fields   report.Fields
}

// Config holds the composer's collaborators. Index and Entities are
// optional; without them resolution relies on the selector and the schema
// vocabulary alone.
type Config struct {
	LLM           llm.Client
	Conversations *conversation.Manager
	Index         *abbrev.Index
	Entities      *abbrev.Entities
	Pool          *pool.Pool
}

// Option customizes a Composer.
type Option func(*Composer)

// WithAction sets the backend call fired on confirmation.
func WithAction(a Action) Option {
	return func(c *Composer) { c.action = a }
}

// WithAnalytics sets the turn record sink.
func WithAnalytics(sink analytics.Sink) Option {
	return func(c *Composer) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithMiddleware sets the pipeline chain.
func WithMiddleware(chain *middleware.Chain) Option {
	return func(c *Composer) {
		if chain != nil {
			c.chain = chain
		}
	}
}

// WithHistoryBudget caps how many tokens of history feed the models
// (default 1500).
func WithHistoryBudget(tok tokenizer.Tokenizer, budget int) Option {
	return func(c *Composer) {
		if tok != nil {
			c.tok = tok
		}
		if budget > 0 {
			c.historyBudget = budget
		}
	}
}

// WithClock overrides the extractor's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.clock = now }
}

// Composer processes turns.
type Composer struct {
	casual    *classify.CasualRecognizer
	confirm   *classify.ConfirmationRecognizer
	removal   *classify.RemovalDetector
	selector  *classify.Selector
	extractor *extract.Extractor
	greeter   *greet.Greeter

	conv  *conversation.Manager
	index *abbrev.Index
	pool  *pool.Pool

	sink          analytics.Sink
	action        Action
	chain         *middleware.Chain
	tok           tokenizer.Tokenizer
	historyBudget int
	clock         func() time.Time

	tracer trace.Tracer
	logger *slog.Logger
}

// New wires a composer from its collaborators.
func New(cfg Config, opts ...Option) (*Composer, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("%w: llm client is required", errors.ErrInvalidInput)
	}
	if cfg.Conversations == nil {
		return nil, fmt.Errorf("%w: conversation manager is required", errors.ErrInvalidInput)
	}
	if cfg.Pool == nil {
		cfg.Pool = pool.New(4)
	}

	c := &Composer{
		casual:        classify.NewCasualRecognizer(cfg.LLM),
		confirm:       classify.NewConfirmationRecognizer(cfg.LLM),
		removal:       classify.NewRemovalDetector(cfg.LLM),
		selector:      classify.NewSelector(cfg.LLM),
		greeter:       greet.New(cfg.LLM),
		conv:          cfg.Conversations,
		index:         cfg.Index,
		pool:          cfg.Pool,
		sink:          analytics.Nop{},
		chain:         middleware.NewChain(),
		tok:           tokenizer.NewSimple(),
		historyBudget: 1500,
		clock:         time.Now,
		tracer:        telemetry.Tracer("composer"),
		logger:        logging.WithComponent("composer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.extractor = extract.New(cfg.LLM, cfg.Pool,
		extract.WithClock(func() time.Time { return c.clock() }),
		extract.WithEntities(cfg.Entities))
	return c, nil
}

// Process runs one turn for a user and returns the reply.
func (c *Composer) Process(ctx context.Context, userID, input string) (*Result, error) {
	mctx := middleware.NewContext(ctx, userID, input)

	var result *Result
	err := c.chain.Execute(mctx, func(mc *middleware.Context) error {
		r, err := c.processTurn(mc.Context(), mc.UserID, mc.Input)
		if err != nil {
			return err
		}
		result = r
		mc.Response = r.Response
		mc.Report = r.Report
		mc.Status = r.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Composer) processTurn(ctx context.Context, userID, input string) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "composer.turn")
	var turnErr error
	defer func() { telemetry.End(span, turnErr) }()

	start := c.clock()
	var (
		result  *Result
		pending report.ID
	)

	_, err := c.conv.Update(ctx, userID, func(state *conversation.State) error {
		r, err := c.step(ctx, state, input)
		if err != nil {
			return err
		}
		result = r
		pending = state.Report
		if r.Status == report.StatusCasual {
			// small talk leaves no trace: no history entry, no store write,
			// no UpdatedAt refresh to skew idle eviction
			return conversation.ErrSkipPersist
		}
		state.Append(input, r.Response)
		return nil
	})
	if err != nil {
		turnErr = err
		return nil, err
	}

	c.record(userID, input, result, pending, c.clock().Sub(start))
	return result, nil
}

// step holds the turn state machine. The state passed in is mutated to carry
// the pending request across turns; history appending happens in the caller.
func (c *Composer) step(ctx context.Context, state *conversation.State, input string) (*Result, error) {
	history := tokenizer.TrimMessages(c.tok, state.History, c.historyBudget)

	isCasual, isConfirmed := c.classifyIntent(ctx, history, input)

	// A confirmation only means something when a request is pending, and it
	// overrides the casual signal: "yes" is small talk by shape alone.
	if isConfirmed && state.Report != "" {
		return c.confirmTurn(ctx, state)
	}

	if isCasual {
		return &Result{
			Response: c.greeter.Reply(ctx, history, input),
			Status:   report.StatusCasual,
		}, nil
	}

	return c.requestTurn(ctx, state, history, input)
}

// classifyIntent runs the two per-turn recognizers in parallel.
func (c *Composer) classifyIntent(ctx context.Context, history []*message.Message, input string) (isCasual, isConfirmed bool) {
	ctx, span := c.tracer.Start(ctx, "composer.classify")
	defer span.End()

	_ = c.pool.Run(ctx,
		func(ctx context.Context) error {
			isCasual, _ = c.casual.IsCasual(ctx, history, input)
			return nil
		},
		func(ctx context.Context) error {
			isConfirmed, _ = c.confirm.IsConfirmed(ctx, history, input)
			return nil
		},
	)
	return isCasual, isConfirmed
}

// confirmTurn handles an agreement to run the pending request.
func (c *Composer) confirmTurn(ctx context.Context, state *conversation.State) (*Result, error) {
	ok, dateStatus := report.Complete(state.Report, state.Fields)
	if !ok {
		// The user agreed to an incomplete request; nothing can run, so no
		// report or params surface to the caller.
		state.Status = dateStatus
		return &Result{
			Response: "I still need a bit more before I can run it.\n\n" +
				renderResponse(dateStatus, state.Report, state.Fields),
			Status: dateStatus,
			Fields: state.Fields.Clone(),
		}, nil
	}

	params := report.BuildParams(state.Report, state.Fields)
	if c.action != nil {
		ctx, span := c.tracer.Start(ctx, "composer.action")
		err := c.action(ctx, params)
		telemetry.End(span, err)
		if err != nil {
			return nil, fmt.Errorf("run report: %w", err)
		}
	}

	state.Status = report.StatusConfirmed
	return &Result{
		Response: renderResponse(report.StatusConfirmed, state.Report, state.Fields),
		Report:   state.Report,
		Params:   &params,
		Status:   report.StatusConfirmed,
		Fields:   state.Fields.Clone(),
	}, nil
}

// requestTurn resolves the report, extracts and merges parameters, and
// computes the status.
func (c *Composer) requestTurn(ctx context.Context, state *conversation.State, history []*message.Message, input string) (*Result, error) {
	selected := c.resolveReport(ctx, history, input)

	switch {
	case selected == "" && state.Report != "":
		// follow-up refining the pending request
		selected = state.Report
	case selected == "":
		return c.unresolvedTurn(ctx, state, history, input)
	case state.Report != "" && selected != state.Report:
		// switching reports starts a fresh request: parameters and history
		// from the old report must not bleed into the new one
		c.logger.Info("report switched, resetting session",
			"user_id", state.UserID, "from", state.Report, "to", selected)
		state.ResetRequest()
		history = nil
	}

	fields, removed, err := c.extractTurn(ctx, selected, history, input)
	if err != nil {
		return nil, err
	}

	var prior report.Fields
	if state.Report == selected {
		prior = state.Fields
	}
	merged := report.Merge(selected, prior, fields, removed)

	status := computeStatus(selected, merged)

	state.Report = selected
	state.Fields = merged
	state.Status = status

	// The caller only sees report and params once the user confirms; until
	// then the request is pending and lives in state.
	return &Result{
		Response: renderResponse(status, selected, merged),
		Status:   status,
		Fields:   merged.Clone(),
	}, nil
}

// resolveReport combines the hybrid index with the selector.
func (c *Composer) resolveReport(ctx context.Context, history []*message.Message, input string) report.ID {
	ctx, span := c.tracer.Start(ctx, "composer.resolve")
	defer span.End()

	var candidates []string
	if c.index != nil {
		matches, err := c.index.Search(ctx, input, 3)
		if err != nil {
			c.logger.Warn("abbreviation search failed", "error", err)
		}
		for _, m := range matches {
			candidates = append(candidates, m.Label())
		}
	}

	id, _ := c.selector.Select(ctx, history, input, candidates)
	return id
}

// extractTurn runs parameter extraction and removal detection in parallel.
func (c *Composer) extractTurn(ctx context.Context, id report.ID, history []*message.Message, input string) (report.Fields, []string, error) {
	ctx, span := c.tracer.Start(ctx, "composer.extract")
	var err error
	defer func() { telemetry.End(span, err) }()

	var (
		fields  report.Fields
		removed []string
	)
	err = c.pool.Run(ctx,
		func(ctx context.Context) error {
			var err error
			fields, err = c.extractor.Extract(ctx, id, history, input)
			return err
		},
		func(ctx context.Context) error {
			removed, _ = c.removal.Removed(ctx, id, input)
			return nil
		},
	)
	if err != nil {
		return nil, nil, err
	}
	return fields, removed, nil
}

// unresolvedTurn handles messages with no resolvable report and no pending
// one: parameters alone earn a "which report?" prompt, otherwise nothing was
// recognized.
func (c *Composer) unresolvedTurn(ctx context.Context, state *conversation.State, history []*message.Message, input string) (*Result, error) {
	// probe with the widest schema purely to detect parameter presence
	probe, err := c.extractor.Extract(ctx, report.WinlostDetail, history, input)
	if err != nil {
		return nil, err
	}

	status := report.StatusNothing
	if !allDefaults(report.WinlostDetail, probe) {
		status = report.StatusNoReport
	}
	state.Status = status

	return &Result{
		Response: renderResponse(status, "", nil),
		Status:   status,
	}, nil
}

func computeStatus(id report.ID, fields report.Fields) report.Status {
	if ok, dateStatus := report.Complete(id, fields); !ok {
		return dateStatus
	}
	if allDefaults(id, fields) {
		return report.StatusNoParams
	}
	return report.StatusSuccess
}

func allDefaults(id report.ID, fields report.Fields) bool {
	schema, ok := report.Definition(id)
	if !ok {
		return true
	}
	for _, spec := range schema.Fields {
		if v, ok := fields[spec.Name]; ok && v != spec.Default {
			return false
		}
	}
	return true
}

// record fires the analytics row without blocking the turn. The pending
// report is recorded even while the result gates it from the caller.
func (c *Composer) record(userID, input string, r *Result, pending report.ID, latency time.Duration) {
	rec := &analytics.Record{
		UserID:       userID,
		Input:        input,
		Response:     r.Response,
		Report:       pending,
		Status:       r.Status,
		Fields:       r.Fields,
		PromptTokens: c.tok.CountTokens(input),
		Latency:      latency,
		CreatedAt:    c.clock(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.sink.Write(ctx, rec); err != nil {
			c.logger.Warn("analytics write failed", "error", err)
		}
	}()
}
