// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Directories DirectoriesConfig `yaml:"directories" mapstructure:"directories"`
	Mailroom    MailroomConfig    `yaml:"mailroom" mapstructure:"mailroom"`
	Circuits    CircuitsConfig    `yaml:"circuits" mapstructure:"circuits"`
	Xref        XrefConfig        `yaml:"xref" mapstructure:"xref"`
	Sites       SitesConfig       `yaml:"sites" mapstructure:"sites"`
	OCR         OCRConfig         `yaml:"ocr" mapstructure:"ocr"`
	Report      ReportConfig      `yaml:"report" mapstructure:"report"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// DirectoriesConfig holds the working directory layout.
type DirectoriesConfig struct {
	Inbox   string `yaml:"inbox" mapstructure:"inbox"`
	Staging string `yaml:"staging" mapstructure:"staging"`
	Output  string `yaml:"output" mapstructure:"output"`
}

// MailroomConfig configures message intake.
type MailroomConfig struct {
	// PONPattern extracts the PON token from a message filename.
	// Messages whose names do not match are skipped entirely.
	PONPattern string `yaml:"pon_pattern" mapstructure:"pon_pattern"`
}

// CircuitsConfig holds the label vocabularies used by the field extractor.
type CircuitsConfig struct {
	EVCHeader    string   `yaml:"evc_header" mapstructure:"evc_header"`
	UNIHeader    string   `yaml:"uni_header" mapstructure:"uni_header"`
	EVCKey       string   `yaml:"evc_key" mapstructure:"evc_key"`
	UNIKeys      []string `yaml:"uni_keys" mapstructure:"uni_keys"`
	DateLabel    string   `yaml:"date_label" mapstructure:"date_label"`
	ContactLabel string   `yaml:"contact_label" mapstructure:"contact_label"`
	EmailLabel   string   `yaml:"email_label" mapstructure:"email_label"`
}

// XrefConfig configures the circuit cross-reference table.
type XrefConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	URL           string `yaml:"url" mapstructure:"url"` // optional: sync-lookups source
	Charset       string `yaml:"charset" mapstructure:"charset"`
	TowerColumn   string `yaml:"tower_column" mapstructure:"tower_column"`
	CircuitColumn string `yaml:"circuit_column" mapstructure:"circuit_column"`
	TagColumn     string `yaml:"tag_column" mapstructure:"tag_column"`
}

// SitesConfig configures the site address directory.
type SitesConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	URL        string `yaml:"url" mapstructure:"url"` // optional: sync-lookups source
	Sheet      string `yaml:"sheet" mapstructure:"sheet"`
	NameColumn string `yaml:"name_column" mapstructure:"name_column"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	Validate      bool   `yaml:"validate" mapstructure:"validate"`
}

// ReportConfig configures the configurator workbook exporter.
type ReportConfig struct {
	TemplatePath   string `yaml:"template_path" mapstructure:"template_path"`
	MappingPath    string `yaml:"mapping_path" mapstructure:"mapping_path"`
	FlagField      string `yaml:"flag_field" mapstructure:"flag_field"`
	HighlightColor string `yaml:"highlight_color" mapstructure:"highlight_color"`
}

// FetchConfig configures remote lookup-table downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// StoreConfig configures the run bookkeeping backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PROVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("directories.inbox", "./inbox")
	v.SetDefault("directories.staging", "./staging")
	v.SetDefault("directories.output", "./output")
	v.SetDefault("mailroom.pon_pattern", `PON_([A-Za-z0-9]+)`)
	v.SetDefault("circuits.evc_header", "EVC CKT")
	v.SetDefault("circuits.uni_header", "UNI CKT")
	v.SetDefault("circuits.evc_key", "EVCTAG")
	v.SetDefault("circuits.uni_keys", []string{"UNITAG", "UNIX"})
	v.SetDefault("circuits.date_label", "FDT")
	v.SetDefault("circuits.contact_label", "INIT TEL NO")
	v.SetDefault("circuits.email_label", "IMPCON EMAIL MAIN TEL NO")
	v.SetDefault("xref.path", "./lookups/circuit_xref.csv")
	v.SetDefault("xref.charset", "")
	v.SetDefault("xref.tower_column", "Tower Name")
	v.SetDefault("xref.circuit_column", "EVC Circuit ID")
	v.SetDefault("xref.tag_column", "CVLAN")
	v.SetDefault("sites.path", "./lookups/sites.xlsx")
	v.SetDefault("sites.name_column", "Site Name")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.validate", true)
	v.SetDefault("report.template_path", "./templates/configurator.xlsx")
	v.SetDefault("report.mapping_path", "./templates/cell_mapping.yaml")
	v.SetDefault("report.flag_field", "cvlan")
	v.SetDefault("report.highlight_color", "FF0000")
	v.SetDefault("fetch.user_agent", "provision-cli/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "./provision.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
