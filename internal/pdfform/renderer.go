package pdfform

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
)

// Strategy selects how mapped values are written into the output document.
type Strategy string

const (
	// StrategyFieldValue sets each matched field's value entry. Values stay
	// editable unless Flatten is invoked afterwards.
	StrategyFieldValue Strategy = "field_value"

	// StrategyOverlay bakes each value as static text at the field's
	// bounding-box center.
	StrategyOverlay Strategy = "overlay"
)

// Renderer writes mapped values into a copy of the template, producing a
// temporary output artifact. The caller owns the artifact's lifecycle and
// must delete it after use.
type Renderer struct {
	outputDir string
	strategy  Strategy
	logger    *zap.Logger
}

// NewRenderer creates a document renderer writing artifacts into outputDir.
func NewRenderer(outputDir string, strategy Strategy, logger *zap.Logger) (*Renderer, error) {
	if strategy != StrategyFieldValue && strategy != StrategyOverlay {
		return nil, fmt.Errorf("unknown render strategy %q", strategy)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Renderer{outputDir: outputDir, strategy: strategy, logger: logger}, nil
}

// Render fills the template with the mapping and returns the path of the
// new output artifact. The template file itself is never modified.
func (r *Renderer) Render(templatePath string, mapping FieldMapping) (string, error) {
	var (
		out string
		err error
	)

	switch r.strategy {
	case StrategyOverlay:
		out, err = r.renderOverlay(templatePath, mapping)
	default:
		out, err = r.renderFieldValues(templatePath, mapping)
	}
	if err != nil {
		return "", err
	}

	r.logger.Info("Rendered prescription document",
		zap.String("strategy", string(r.strategy)),
		zap.Int("fields_written", len(mapping.Entries)),
		zap.String("output", out))

	return out, nil
}

// renderFieldValues sets the V entry of each matched field and serializes
// the in-memory document to a new file.
func (r *Renderer) renderFieldValues(templatePath string, mapping FieldMapping) (string, error) {
	f, err := os.Open(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	acroFormDict, fieldDicts, err := acroForm(ctx)
	if err != nil {
		return "", err
	}

	byName := make(map[string]string, len(mapping.Entries))
	for _, e := range mapping.Entries {
		byName[e.Field.Name] = e.Value
	}

	for _, d := range fieldDicts {
		nameObj, found := d.Find("T")
		if !found {
			continue
		}
		name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
		if err != nil {
			continue
		}
		value, ok := byName[name]
		if !ok {
			continue
		}
		d.Update("V", types.StringLiteral(value))
		// Drop any cached appearance stream so viewers regenerate it
		d.Delete("AP")
	}

	// Viewers must rebuild field appearances from the new values
	acroFormDict.Update("NeedAppearances", types.Boolean(true))

	out, err := r.createArtifact()
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := api.WriteContext(ctx, out); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	return out.Name(), nil
}

// renderOverlay draws each mapped value as static text centered on the
// field's rectangle, merging the text onto the page content. Fields without
// a usable rectangle are skipped.
func (r *Renderer) renderOverlay(templatePath string, mapping FieldMapping) (string, error) {
	doc, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	for _, e := range mapping.Entries {
		if !e.Field.HasRect || e.Value == "" {
			continue
		}
		x, y := e.Field.Rect.Center()
		doc, err = stampText(doc, e.Value, x, y)
		if err != nil {
			return "", fmt.Errorf("%w: field %s: %v", ErrRender, e.Field.Name, err)
		}
	}

	out, err := r.createArtifact()
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := out.Write(doc); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	return out.Name(), nil
}

// Flatten bakes the document's current field values into static page
// content and neutralizes the form structure. On failure the file is left
// untouched so the caller can fall back to the unflattened artifact.
func (r *Renderer) Flatten(path string) error {
	fields, err := NewInspector(r.logger).Inspect(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}

	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}

	for _, f := range fields {
		if !f.HasRect || f.Value == "" {
			continue
		}
		x, y := f.Rect.Center()
		doc, err = stampText(doc, f.Value, x, y)
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrFlatten, f.Name, err)
		}
	}

	doc, err = stripAcroForm(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}

	tmp, err := os.CreateTemp(r.outputDir, "flatten_*.pdf")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrFlatten, err)
	}

	r.logger.Info("Flattened prescription document", zap.String("path", path))
	return nil
}

// stampText merges one text run onto page 1 content at the given
// user-space coordinate, anchored bottom-left.
func stampText(doc []byte, text string, x, y float64) ([]byte, error) {
	desc := fmt.Sprintf("font:Helvetica, points:10, scale:1 abs, pos:bl, off:%.1f %.1f, rot:0, op:1", x, y)
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc), &buf, []string{"1"}, wm, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// stripAcroForm removes the AcroForm entry from the catalog so the field
// widgets no longer render over the baked text.
func stripAcroForm(doc []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(doc), conf)
	if err != nil {
		return nil, err
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, err
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	rootDict.Delete("AcroForm")

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) createArtifact() (*os.File, error) {
	out, err := os.CreateTemp(r.outputDir, "prescription_*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return out, nil
}
