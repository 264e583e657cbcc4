package sheets

import "errors"

// Credential errors. Both are non-fatal: the caller keeps running in
// PDF-only mode with the spreadsheet leg disabled.
var (
	ErrNoCredentials      = errors.New("no service-account credentials available")
	ErrInvalidCredentials = errors.New("credentials are not a valid service-account structure")
)

// Connection errors, also non-fatal.
var (
	ErrConnection    = errors.New("failed to connect to Google Sheets")
	ErrSheetNotFound = errors.New("spreadsheet not found by name")
)

// ErrAppend is reported to the user but never blocks PDF generation.
var ErrAppend = errors.New("failed to append row to spreadsheet")
