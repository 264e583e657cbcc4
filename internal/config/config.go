package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Sheets   SheetsConfig   `mapstructure:"google_sheets"`
	Template TemplateConfig `mapstructure:"template"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetName string        `mapstructure:"spreadsheet_name"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	LedgerPath      string        `mapstructure:"ledger_path"`
}

// TemplateConfig holds prescription template configuration
type TemplateConfig struct {
	Path string `mapstructure:"path"`
}

// RendererConfig holds document renderer configuration
type RendererConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Strategy  string `mapstructure:"strategy"` // field_value or overlay
	Flatten   bool   `mapstructure:"flatten"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("google_sheets.spreadsheet_name", "cosmoslim patient record")
	viper.SetDefault("google_sheets.credentials_file", "credentials.json")
	viper.SetDefault("google_sheets.request_timeout", 30*time.Second)
	viper.SetDefault("google_sheets.ledger_path", "data/prescriptions.xlsx")

	viper.SetDefault("template.path", "templates/prescription_template.pdf")

	viper.SetDefault("renderer.output_dir", "generated_prescriptions")
	viper.SetDefault("renderer.strategy", "field_value")
	viper.SetDefault("renderer.flatten", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// The service-account blob comes from the environment in hosted deployments
	viper.BindEnv("google_sheets.credentials_json", "GOOGLE_CREDENTIALS")
	viper.BindEnv("google_sheets.spreadsheet_name", "SPREADSHEET_NAME")
	viper.BindEnv("template.path", "TEMPLATE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Template.Path == "" {
		return fmt.Errorf("template.path is required")
	}
	if c.Renderer.OutputDir == "" {
		return fmt.Errorf("renderer.output_dir is required")
	}
	if c.Renderer.Strategy != "field_value" && c.Renderer.Strategy != "overlay" {
		return fmt.Errorf("renderer.strategy must be field_value or overlay, got %q", c.Renderer.Strategy)
	}
	if c.Sheets.SpreadsheetName == "" {
		return fmt.Errorf("google_sheets.spreadsheet_name is required")
	}
	return nil
}
