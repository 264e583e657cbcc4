package pdfform

import "errors"

// Template errors are fatal to rendering: no artifact is produced.
var (
	ErrTemplateNotFound = errors.New("template file not found")
	ErrInvalidTemplate  = errors.New("template is not a readable PDF")
	ErrNoFormFields     = errors.New("template has no fillable form fields")
)

// Render errors
var (
	// ErrRender is fatal: the output artifact could not be written.
	ErrRender = errors.New("failed to write output document")

	// ErrFlatten is non-fatal: the caller keeps the unflattened artifact.
	ErrFlatten = errors.New("failed to flatten document")
)
