package sheets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Ledger is a local .xlsx fallback used when the remote spreadsheet leg is
// disabled or an append fails. Best effort only: it is not a system of
// record, and ledger errors are logged and swallowed by the caller.
type Ledger struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewLedger creates a ledger writing to the given .xlsx path.
func NewLedger(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: path, logger: logger}
}

// Append writes one row to the ledger workbook, creating the workbook with
// a header row on first use. The workbook is rewritten whole on every
// append, so the mutex serializes the read-modify-write.
func (l *Ledger) Append(header, row []interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, sheetName, err := l.openWorkbook(header)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("failed to read ledger rows: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("failed to compute ledger cell: %w", err)
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}

	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	l.logger.Info("Appended prescription to local ledger", zap.String("path", l.path))
	return nil
}

func (l *Ledger) openWorkbook(header []interface{}) (*excelize.File, string, error) {
	if _, err := os.Stat(l.path); err == nil {
		f, err := excelize.OpenFile(l.path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open ledger: %w", err)
		}
		sheetList := f.GetSheetList()
		if len(sheetList) == 0 {
			f.Close()
			return nil, "", fmt.Errorf("ledger workbook has no sheets")
		}
		return f, sheetList[0], nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, "", fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to write ledger header: %w", err)
	}
	return f, sheetName, nil
}
