package pdfform

import (
	"strconv"
	"strings"

	"github.com/cosmoslim/prescription-server/internal/prescription"
	"go.uber.org/zap"
)

// Mapper matches the application's semantic field keys against template
// field names and assigns record values to the matched fields.
type Mapper struct {
	logger *zap.Logger
}

// NewMapper creates a field mapper.
func NewMapper(logger *zap.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// Match builds a FieldMapping for the record against the given fields.
// For each semantic key it looks for an exact name match first, then the
// first field (in enumeration order) whose normalized name contains the
// normalized key or vice versa. Keys with no match are reported in
// Unmatched and skipped; partial fills are acceptable.
//
// Match is deterministic: the same fields and record always produce the
// same mapping.
func (m *Mapper) Match(fields []TemplateField, record prescription.Record) FieldMapping {
	values := recordValues(record)

	mapping := FieldMapping{}
	for _, key := range SemanticKeys {
		field, ok := findField(fields, key)
		if !ok {
			mapping.Unmatched = append(mapping.Unmatched, key)
			m.logger.Warn("No template field matches key", zap.String("key", key))
			continue
		}
		mapping.Entries = append(mapping.Entries, MappingEntry{
			Key:   key,
			Field: field,
			Value: values[key],
		})
	}

	return mapping
}

// findField applies the exact-then-fuzzy match policy with a first-match
// tie-break.
func findField(fields []TemplateField, key string) (TemplateField, bool) {
	for _, f := range fields {
		if f.Name == key {
			return f, true
		}
	}

	normKey := normalize(key)
	for _, f := range fields {
		normName := normalize(f.Name)
		if normName == "" {
			continue
		}
		if strings.Contains(normName, normKey) || strings.Contains(normKey, normName) {
			return f, true
		}
	}

	return TemplateField{}, false
}

// normalize lowercases and strips separators so that "PatientName",
// "Follow up Date" and "patient_name" compare by substance.
func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// recordValues flattens a record into the literal strings written into the
// template, keyed by semantic key.
func recordValues(r prescription.Record) map[string]string {
	return map[string]string{
		"name":         r.PatientName,
		"age":          strconv.Itoa(r.Age),
		"date":         r.Date.Format(prescription.DateLayout),
		"treatment":    r.Treatment.String(),
		"follow_up":    r.FollowUp.Format(prescription.DateLayout),
		"instructions": r.Instructions,
		"session":      r.Session,
	}
}
