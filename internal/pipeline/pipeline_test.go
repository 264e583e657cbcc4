package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cosmoslim/prescription-server/internal/pdfform"
	"github.com/cosmoslim/prescription-server/internal/prescription"
	"github.com/cosmoslim/prescription-server/internal/sheets"
	"github.com/cosmoslim/prescription-server/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInspector struct {
	fields []pdfform.TemplateField
	err    error
}

func (f *fakeInspector) Inspect(string) ([]pdfform.TemplateField, error) {
	return f.fields, f.err
}

type fakeRenderer struct {
	dir        string
	renderErr  error
	flattenErr error
	flattened  bool
}

func (f *fakeRenderer) Render(_ string, mapping pdfform.FieldMapping) (string, error) {
	if f.renderErr != nil {
		return "", f.renderErr
	}
	out, err := os.CreateTemp(f.dir, "prescription_*.pdf")
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := out.Write([]byte("%PDF-1.4 rendered content")); err != nil {
		return "", err
	}
	return out.Name(), nil
}

func (f *fakeRenderer) Flatten(path string) error {
	if f.flattenErr != nil {
		return f.flattenErr
	}
	f.flattened = true
	return os.WriteFile(path, []byte("%PDF-1.4 flattened content"), 0644)
}

type fakeAppender struct {
	err   error
	calls int
}

func (f *fakeAppender) Append(_ context.Context, record prescription.Record) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return record.ID, nil
}

type fakeLedger struct {
	rows int
}

func (f *fakeLedger) Append(_, _ []interface{}) error {
	f.rows++
	return nil
}

func validRecord() prescription.Record {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return prescription.NewRecord("Asha Rao", 34, now, prescription.TreatmentHydraFacial,
		"", now.AddDate(0, 0, 14), "Avoid sun exposure", now)
}

func fields() []pdfform.TemplateField {
	return []pdfform.TemplateField{
		{Name: "Name", Type: pdfform.FieldTypeText, HasRect: true},
		{Name: "Age", Type: pdfform.FieldTypeText, HasRect: true},
	}
}

func newPipeline(t *testing.T, cfg Config, in Inspector, r Renderer, a RowAppender, l LedgerAppender) *Pipeline {
	t.Helper()
	if cfg.TemplatePath == "" {
		cfg.TemplatePath = "templates/prescription_template.pdf"
	}
	return New(cfg, in, pdfform.NewMapper(zap.NewNop()), r, a, l, zap.NewNop())
}

func TestPipeline_Run_Complete(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	appender := &fakeAppender{}
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, renderer, appender, nil)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.Equal(t, workflow.StateComplete, res.State)
	assert.True(t, res.Persisted)
	assert.Equal(t, res.Record.ID, res.PrescriptionID)
	require.NotEmpty(t, res.ArtifactPath)

	// Artifact must never be empty
	info, err := os.Stat(res.ArtifactPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Keys with no matching template field are reported, not fatal
	assert.ElementsMatch(t,
		[]string{"date", "treatment", "follow_up", "instructions", "session"},
		res.Unmatched)
}

func TestPipeline_Run_ValidationRejects(t *testing.T) {
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, &fakeRenderer{dir: t.TempDir()}, &fakeAppender{}, nil)

	rec := validRecord()
	rec.PatientName = ""

	res, err := p.Run(context.Background(), rec)

	assert.ErrorIs(t, err, prescription.ErrEmptyName)
	assert.Equal(t, workflow.StateCollecting, res.State)
	assert.Empty(t, res.ArtifactPath)
}

func TestPipeline_Run_AppendFailureStillRenders(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	appender := &fakeAppender{err: sheets.ErrAppend}
	ledger := &fakeLedger{}
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, renderer, appender, ledger)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.Equal(t, workflow.StateComplete, res.State)
	assert.False(t, res.Persisted)
	assert.Contains(t, res.SheetsMessage, "Failed to save to Google Sheets")
	assert.NotEmpty(t, res.ArtifactPath)
	assert.Equal(t, 1, ledger.rows, "failed append should fall back to the local ledger")
}

func TestPipeline_Run_PDFOnlyMode(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	ledger := &fakeLedger{}
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, renderer, nil, ledger)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.Equal(t, workflow.StateComplete, res.State)
	assert.False(t, res.Persisted)
	assert.Contains(t, res.SheetsMessage, "not connected")
	assert.Equal(t, 1, ledger.rows)
}

func TestPipeline_Run_TemplateMissingFails(t *testing.T) {
	p := newPipeline(t, Config{}, &fakeInspector{err: pdfform.ErrTemplateNotFound}, &fakeRenderer{dir: t.TempDir()}, &fakeAppender{}, nil)

	res, err := p.Run(context.Background(), validRecord())

	assert.ErrorIs(t, err, pdfform.ErrTemplateNotFound)
	assert.Equal(t, workflow.StateFailed, res.State)
	assert.Empty(t, res.ArtifactPath)
}

func TestPipeline_Run_RenderErrorFails(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir(), renderErr: pdfform.ErrRender}
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, renderer, &fakeAppender{}, nil)

	res, err := p.Run(context.Background(), validRecord())

	assert.ErrorIs(t, err, pdfform.ErrRender)
	assert.Equal(t, workflow.StateFailed, res.State)
	assert.Empty(t, res.ArtifactPath)
}

func TestPipeline_Run_FlattenFailureKeepsUnflattenedArtifact(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir(), flattenErr: errors.New("flatten exploded")}
	p := newPipeline(t, Config{Flatten: true}, &fakeInspector{fields: fields()}, renderer, &fakeAppender{}, nil)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.Equal(t, workflow.StateComplete, res.State)
	assert.False(t, res.Flattened)
	assert.Contains(t, res.FlattenMessage, "Flatten failed")

	// The pre-flatten artifact survives untouched
	data, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 rendered content", string(data))
}

func TestPipeline_Run_FlattenSuccess(t *testing.T) {
	renderer := &fakeRenderer{dir: t.TempDir()}
	p := newPipeline(t, Config{Flatten: true}, &fakeInspector{fields: fields()}, renderer, &fakeAppender{}, nil)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.True(t, res.Flattened)
	assert.True(t, renderer.flattened)
}

func TestPipeline_Run_ArtifactInOutputDir(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{dir: dir}
	p := newPipeline(t, Config{}, &fakeInspector{fields: fields()}, renderer, &fakeAppender{}, nil)

	res, err := p.Run(context.Background(), validRecord())

	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(res.ArtifactPath))
}
