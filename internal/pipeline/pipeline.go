// Package pipeline runs the export sequence: connect to the study store,
// fetch the ordered records, render the document, invoke the remote function.
// The sequence is strictly linear with no partial-success mode; a failure at
// any stage aborts the rest, and the store connection is released on every
// exit path.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/dispatch"
	"github.com/codex-stevenh/clinmatch-AACT/internal/logging"
	"github.com/codex-stevenh/clinmatch-AACT/internal/render"
	"github.com/codex-stevenh/clinmatch-AACT/internal/study"
)

// Fetcher is the reader stage as the pipeline sees it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]study.Record, error)
	Close(ctx context.Context) error
}

// Invoker is the dispatcher stage as the pipeline sees it.
type Invoker interface {
	Invoke(ctx context.Context, doc render.Document) (any, error)
}

// Connector opens the reader stage. Tests substitute a fake.
type Connector func(ctx context.Context, cfg config.DBConfig) (Fetcher, error)

// InvokerFactory builds the dispatcher stage. Tests substitute a fake.
type InvokerFactory func(ctx context.Context, fn config.FunctionConfig, policy dispatch.Policy) (Invoker, error)

// Pipeline wires the three stages together. Construct with New for the real
// stages; the fields are exported only so tests can inject fakes.
type Pipeline struct {
	Connect    Connector
	NewInvoker InvokerFactory
	Logger     logging.Logger
}

// New returns a Pipeline backed by the real reader and dispatcher.
// A nil logger is replaced by the discarding one.
func New(logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{
		Connect: func(ctx context.Context, cfg config.DBConfig) (Fetcher, error) {
			return study.Connect(ctx, cfg)
		},
		NewInvoker: func(ctx context.Context, fn config.FunctionConfig, policy dispatch.Policy) (Invoker, error) {
			return dispatch.New(ctx, fn, policy)
		},
		Logger: logger,
	}
}

// Result is what a successful run produces. Response is the remote function's
// decoded JSON result, opaque to the pipeline.
type Result struct {
	RunID       string
	RecordCount int
	Response    any
}

// Run executes one export. Every stage logs its failure cause before the
// error is returned; nothing is swallowed and nothing is retried here.
func (p *Pipeline) Run(ctx context.Context, cfg config.Config) (*Result, error) {
	runID := uuid.NewString()
	log := p.Logger

	log.Infof("run %s: connecting to study store", runID)
	reader, err := p.Connect(ctx, cfg.DB)
	if err != nil {
		log.Errorf("%s", logging.PresentError("run "+runID+": connect", err))
		return nil, err
	}
	defer func() {
		if cerr := reader.Close(ctx); cerr != nil {
			log.Errorf("%s", logging.PresentError("run "+runID+": close connection", cerr))
		}
	}()

	records, err := reader.Fetch(ctx)
	if err != nil {
		log.Errorf("%s", logging.PresentError("run "+runID+": fetch", err))
		return nil, err
	}
	log.Infof("run %s: fetched %d studies", runID, len(records))

	doc := render.RenderAll(records)

	invoker, err := p.NewInvoker(ctx, cfg.Function, dispatch.PolicyFromConfig(cfg.Dispatch))
	if err != nil {
		log.Errorf("%s", logging.PresentError("run "+runID+": dispatcher setup", err))
		return nil, err
	}

	log.Infof("run %s: dispatching %d records to %s (%s)", runID, doc.RecordCount, cfg.Function.Name, cfg.Function.Region)
	resp, err := invoker.Invoke(ctx, doc)
	if err != nil {
		log.Errorf("%s", logging.PresentError("run "+runID+": invoke", err))
		return nil, err
	}
	log.Infof("run %s: remote function completed", runID)

	return &Result{RunID: runID, RecordCount: doc.RecordCount, Response: resp}, nil
}
