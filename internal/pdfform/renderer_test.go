package pdfform

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeTemplatePDF assembles a one-page document with two text fields,
// computing xref offsets from the buffer as it grows.
func writeTemplatePDF(t *testing.T) string {
	t.Helper()

	widgets := []struct {
		name string
		rect string
	}{
		{"Name", "[100 600 300 620]"},
		{"Age", "[100 560 300 580]"},
	}

	refs := make([]string, len(widgets))
	for i := range widgets {
		refs[i] = fmt.Sprintf("%d 0 R", i+4)
	}
	refList := refs[0]
	for _, r := range refs[1:] {
		refList += " " + r
	}

	objs := []string{
		fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [%s] >> >>", refList),
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [%s] >>", refList),
	}
	for _, w := range widgets {
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect %s /F 4 /P 3 0 R /DA (/Helv 0 Tf 0 g) >>",
			w.name, w.rect))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")

	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "template.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func inspectTemplate(t *testing.T, path string) []TemplateField {
	t.Helper()
	fields, err := NewInspector(zap.NewNop()).Inspect(path)
	require.NoError(t, err)
	return fields
}

func templateMapping(fields []TemplateField) FieldMapping {
	values := map[string]string{"Name": "Asha Rao", "Age": "34"}
	mapping := FieldMapping{}
	for _, f := range fields {
		if v, ok := values[f.Name]; ok {
			mapping.Entries = append(mapping.Entries, MappingEntry{Key: f.Name, Field: f, Value: v})
		}
	}
	return mapping
}

func TestRenderer_RenderFieldValues_RoundTrip(t *testing.T) {
	tmpl := writeTemplatePDF(t)
	before, err := os.ReadFile(tmpl)
	require.NoError(t, err)

	fields := inspectTemplate(t, tmpl)
	require.Len(t, fields, 2)

	r, err := NewRenderer(t.TempDir(), StrategyFieldValue, zap.NewNop())
	require.NoError(t, err)

	out, err := r.Render(tmpl, templateMapping(fields))
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "artifact must never be empty")

	// The template file itself is never modified
	after, err := os.ReadFile(tmpl)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Re-inspecting the artifact surfaces the written values
	byName := make(map[string]string)
	for _, f := range inspectTemplate(t, out) {
		byName[f.Name] = f.Value
	}
	assert.Equal(t, "Asha Rao", byName["Name"])
	assert.Equal(t, "34", byName["Age"])
}

func TestRenderer_RenderOverlay(t *testing.T) {
	tmpl := writeTemplatePDF(t)
	fields := inspectTemplate(t, tmpl)

	r, err := NewRenderer(t.TempDir(), StrategyOverlay, zap.NewNop())
	require.NoError(t, err)

	out, err := r.Render(tmpl, templateMapping(fields))
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Overlay bakes text onto the page but leaves the form structure alone
	assert.Len(t, inspectTemplate(t, out), 2)
}

func TestRenderer_Flatten_RemovesFormStructure(t *testing.T) {
	tmpl := writeTemplatePDF(t)
	fields := inspectTemplate(t, tmpl)

	r, err := NewRenderer(t.TempDir(), StrategyFieldValue, zap.NewNop())
	require.NoError(t, err)

	out, err := r.Render(tmpl, templateMapping(fields))
	require.NoError(t, err)

	require.NoError(t, r.Flatten(out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = NewInspector(zap.NewNop()).Inspect(out)
	assert.ErrorIs(t, err, ErrNoFormFields)
}

func TestRenderer_Flatten_FailureLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, StrategyFieldValue, zap.NewNop())
	require.NoError(t, err)

	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	err = r.Flatten(path)
	assert.ErrorIs(t, err, ErrFlatten)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "not a pdf", string(data), "failed flatten must not touch the artifact")
}

func TestNewRenderer_RejectsUnknownStrategy(t *testing.T) {
	_, err := NewRenderer(t.TempDir(), Strategy("scribble"), zap.NewNop())
	assert.Error(t, err)
}
