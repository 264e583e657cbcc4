package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cosmoslim/prescription-server/internal/config"
	"github.com/cosmoslim/prescription-server/internal/pdfform"
	"github.com/cosmoslim/prescription-server/internal/pipeline"
	"github.com/cosmoslim/prescription-server/internal/preview"
	"github.com/cosmoslim/prescription-server/internal/server"
	"github.com/cosmoslim/prescription-server/internal/sheets"
	"github.com/cosmoslim/prescription-server/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development secrets live in .env; absence is fine
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Prescription System",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// The spreadsheet leg is best effort: credential or connection problems
	// leave the system running in PDF-only mode.
	var appender pipeline.RowAppender
	creds, err := sheets.LoadCredentials(cfg.Sheets.CredentialsJSON, cfg.Sheets.CredentialsFile)
	if err != nil {
		logger.Warn("Google Sheets disabled, running in PDF-only mode", zap.Error(err))
	} else {
		client, err := sheets.Open(context.Background(), sheets.Config{
			SpreadsheetName: cfg.Sheets.SpreadsheetName,
			RequestTimeout:  cfg.Sheets.RequestTimeout,
		}, creds, logger)
		if err != nil {
			logger.Warn("Google Sheets connection failed, running in PDF-only mode", zap.Error(err))
		} else {
			appender = client
		}
	}

	var ledger pipeline.LedgerAppender
	if cfg.Sheets.LedgerPath != "" {
		ledger = sheets.NewLedger(cfg.Sheets.LedgerPath, logger)
	}

	inspector := pdfform.NewInspector(logger)
	mapper := pdfform.NewMapper(logger)

	renderer, err := pdfform.NewRenderer(cfg.Renderer.OutputDir, pdfform.Strategy(cfg.Renderer.Strategy), logger)
	if err != nil {
		logger.Fatal("Failed to initialize renderer", zap.Error(err))
	}

	pipe := pipeline.New(pipeline.Config{
		TemplatePath: cfg.Template.Path,
		Flatten:      cfg.Renderer.Flatten,
	}, inspector, mapper, renderer, appender, ledger, logger)

	previewer := preview.NewRenderer(logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(server.Config{
		TemplatePath:    cfg.Template.Path,
		SheetsConnected: appender != nil,
	}, pipe, inspector, previewer, logger)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
