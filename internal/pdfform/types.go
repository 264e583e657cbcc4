package pdfform

// FieldType tags the kind of fillable field found in the template.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeChoice    FieldType = "choice"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeButton    FieldType = "button"
	FieldTypeSignature FieldType = "signature"
	FieldTypeUnknown   FieldType = "unknown"
)

// Rect is a field's bounding rectangle in PDF user-space coordinates.
type Rect struct {
	LLX float64 `json:"llx"`
	LLY float64 `json:"lly"`
	URX float64 `json:"urx"`
	URY float64 `json:"ury"`
}

// Center returns the midpoint of the rectangle, used by the overlay
// renderer as the text anchor.
func (r Rect) Center() (x, y float64) {
	return (r.LLX + r.URX) / 2, (r.LLY + r.URY) / 2
}

// Width returns the rectangle width.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the rectangle height.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// TemplateField is a read-only snapshot of one fillable field taken from the
// template at inspection time. HasRect is false for fields whose widget
// carries no usable rectangle; such fields can still be filled by value but
// are skipped by the overlay strategy.
type TemplateField struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Rect    Rect      `json:"rect"`
	HasRect bool      `json:"has_rect"`
	Value   string    `json:"value,omitempty"`
}

// SemanticKeys is the fixed set of application field keys, in mapping order.
var SemanticKeys = []string{
	"name",
	"age",
	"date",
	"treatment",
	"follow_up",
	"instructions",
	"session",
}

// MappingEntry binds one semantic key to a template field and the literal
// value that should be written into it.
type MappingEntry struct {
	Key   string
	Field TemplateField
	Value string
}

// FieldMapping is the result of matching a record against the template's
// fields. Unmatched keys are reported, not failed: partial fills are
// acceptable output.
type FieldMapping struct {
	Entries   []MappingEntry
	Unmatched []string
}
