package pipeline

import (
	"context"
	"fmt"

	"github.com/cosmoslim/prescription-server/internal/pdfform"
	"github.com/cosmoslim/prescription-server/internal/prescription"
	"github.com/cosmoslim/prescription-server/internal/workflow"
	"go.uber.org/zap"
)

// Inspector enumerates a template's fillable fields.
type Inspector interface {
	Inspect(templatePath string) ([]pdfform.TemplateField, error)
}

// Mapper matches semantic keys against template fields.
type Mapper interface {
	Match(fields []pdfform.TemplateField, record prescription.Record) pdfform.FieldMapping
}

// Renderer produces and optionally flattens the output artifact.
type Renderer interface {
	Render(templatePath string, mapping pdfform.FieldMapping) (string, error)
	Flatten(path string) error
}

// RowAppender appends a record to the remote spreadsheet.
type RowAppender interface {
	Append(ctx context.Context, record prescription.Record) (string, error)
}

// LedgerAppender appends a row to the local fallback ledger.
type LedgerAppender interface {
	Append(header, row []interface{}) error
}

// Config holds pipeline configuration.
type Config struct {
	TemplatePath string
	Flatten      bool
}

// Result reports the outcome of one submission run. ArtifactPath is owned
// by the caller, who must delete the file after use.
type Result struct {
	Record         prescription.Record
	PrescriptionID string
	Persisted      bool
	SheetsMessage  string
	Unmatched      []string
	ArtifactPath   string
	Flattened      bool
	FlattenMessage string
	State          workflow.State
}

// Pipeline runs one submission start-to-finish: validate, best-effort
// spreadsheet append, render, optional flatten. The spreadsheet leg never
// blocks rendering; only template and render errors are fatal.
type Pipeline struct {
	cfg       Config
	inspector Inspector
	mapper    Mapper
	renderer  Renderer
	appender  RowAppender    // nil in PDF-only mode
	ledger    LedgerAppender // nil when no fallback ledger is configured
	logger    *zap.Logger
}

// New creates a submission pipeline. appender may be nil (PDF-only mode),
// as may ledger.
func New(cfg Config, inspector Inspector, mapper Mapper, renderer Renderer, appender RowAppender, ledger LedgerAppender, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		inspector: inspector,
		mapper:    mapper,
		renderer:  renderer,
		appender:  appender,
		ledger:    ledger,
		logger:    logger,
	}
}

// Run executes the submission. A validation error returns the user to the
// Collecting state; template/render errors end in Failed with no artifact.
func (p *Pipeline) Run(ctx context.Context, record prescription.Record) (*Result, error) {
	m := workflow.NewSubmissionMachine()
	res := &Result{Record: record}

	must(m.Fire(ctx, workflow.TriggerLoad))
	must(m.Fire(ctx, workflow.TriggerSubmit))

	if err := record.Validate(); err != nil {
		must(m.Fire(ctx, workflow.TriggerReject))
		res.State = m.State()
		p.logger.Info("Submission rejected",
			zap.String("prescription_id", record.ID),
			zap.Error(err))
		return res, err
	}

	must(m.Fire(ctx, workflow.TriggerAccept))
	p.persist(ctx, record, res)

	// The spreadsheet leg is best effort; rendering always proceeds
	must(m.Fire(ctx, workflow.TriggerPersisted))

	if err := p.render(record, res); err != nil {
		must(m.Fire(ctx, workflow.TriggerRenderFailed))
		res.State = m.State()
		return res, err
	}

	must(m.Fire(ctx, workflow.TriggerRendered))
	res.State = m.State()

	p.logger.Info("Submission complete",
		zap.String("prescription_id", record.ID),
		zap.Bool("persisted", res.Persisted),
		zap.String("artifact", res.ArtifactPath))

	return res, nil
}

func (p *Pipeline) persist(ctx context.Context, record prescription.Record, res *Result) {
	if p.appender == nil {
		res.SheetsMessage = "Google Sheets not connected - prescription saved to PDF only"
		p.appendToLedger(record)
		return
	}

	id, err := p.appender.Append(ctx, record)
	if err != nil {
		res.SheetsMessage = fmt.Sprintf("Failed to save to Google Sheets: %v", err)
		p.logger.Warn("Spreadsheet append failed",
			zap.String("prescription_id", record.ID),
			zap.Error(err))
		p.appendToLedger(record)
		return
	}

	res.Persisted = true
	res.PrescriptionID = id
	res.SheetsMessage = fmt.Sprintf("Data saved to Google Sheets. Prescription ID: %s", id)
}

func (p *Pipeline) appendToLedger(record prescription.Record) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Append(prescription.HeaderRow(), record.Row()); err != nil {
		p.logger.Warn("Fallback ledger append failed", zap.Error(err))
	}
}

func (p *Pipeline) render(record prescription.Record, res *Result) error {
	fields, err := p.inspector.Inspect(p.cfg.TemplatePath)
	if err != nil {
		p.logger.Error("Template inspection failed", zap.Error(err))
		return err
	}

	mapping := p.mapper.Match(fields, record)
	res.Unmatched = mapping.Unmatched

	out, err := p.renderer.Render(p.cfg.TemplatePath, mapping)
	if err != nil {
		p.logger.Error("Render failed", zap.Error(err))
		return err
	}
	res.ArtifactPath = out

	if p.cfg.Flatten {
		if err := p.renderer.Flatten(out); err != nil {
			// Flatten failure keeps the unflattened artifact
			res.FlattenMessage = fmt.Sprintf("Flatten failed, returning fillable document: %v", err)
			p.logger.Warn("Flatten failed, falling back to unflattened artifact",
				zap.String("artifact", out),
				zap.Error(err))
		} else {
			res.Flattened = true
		}
	}

	return nil
}

// must panics on transition errors, which would indicate a broken
// transition table rather than a runtime condition.
func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("submission state machine misconfigured: %v", err))
	}
}
