package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/cosmoslim/prescription-server/internal/prescription"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config holds the spreadsheet client configuration.
type Config struct {
	SpreadsheetName string
	RequestTimeout  time.Duration
}

// Client appends prescription rows to a remote spreadsheet identified by a
// fixed name. The client is opened once at startup and reused per
// submission; append relies on the backing service's own semantics for
// concurrent-write safety.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	timeout       time.Duration
	logger        *zap.Logger
}

// Open authenticates with the service-account blob, resolves the
// spreadsheet name to an ID via a Drive query, and bootstraps the header
// row if the first worksheet is empty.
func Open(ctx context.Context, cfg Config, credentials []byte, logger *zap.Logger) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentials,
		sheets.SpreadsheetsScope, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	sheetsSvc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	driveSvc, err := drive.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	spreadsheetID, err := findSpreadsheetID(lookupCtx, driveSvc, cfg.SpreadsheetName)
	if err != nil {
		return nil, err
	}

	c := &Client{
		svc:           sheetsSvc,
		spreadsheetID: spreadsheetID,
		timeout:       timeout,
		logger:        logger,
	}

	if err := c.ensureHeader(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to Google Sheet",
		zap.String("name", cfg.SpreadsheetName),
		zap.String("spreadsheet_id", spreadsheetID))

	return c, nil
}

// findSpreadsheetID resolves a spreadsheet name to its file ID.
func findSpreadsheetID(ctx context.Context, svc *drive.Service, name string) (string, error) {
	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		name)

	list, err := svc.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	return list.Files[0].Id, nil
}

// ensureHeader appends the header row once if the first worksheet is empty.
func (c *Client) ensureHeader(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, "1:1").Context(reqCtx).Do()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	if err := c.appendRow(ctx, prescription.HeaderRow()); err != nil {
		return fmt.Errorf("%w: header row: %v", ErrConnection, err)
	}

	c.logger.Info("Appended header row to empty sheet")
	return nil
}

// Append serializes the record into one row in the fixed column order and
// appends it to the sheet, returning the record's prescription ID.
func (c *Client) Append(ctx context.Context, record prescription.Record) (string, error) {
	if err := c.appendRow(ctx, record.Row()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAppend, err)
	}

	c.logger.Info("Saved prescription to Google Sheets",
		zap.String("prescription_id", record.ID),
		zap.String("patient", record.PatientName))

	return record.ID, nil
}

func (c *Client) appendRow(ctx context.Context, row []interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, "A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(reqCtx).
		Do()
	return err
}
