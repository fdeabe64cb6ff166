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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Ateco   AtecoConfig   `yaml:"ateco" mapstructure:"ateco"`
	Seismic SeismicConfig `yaml:"seismic" mapstructure:"seismic"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AtecoConfig locates the ATECO recode workbook.
type AtecoConfig struct {
	DatasetPath string `yaml:"dataset_path" mapstructure:"dataset_path"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// SeismicConfig locates the municipal seismic-zone dataset.
type SeismicConfig struct {
	DatasetPath string `yaml:"dataset_path" mapstructure:"dataset_path"`
}

// ExtractConfig configures PDF text acquisition.
type ExtractConfig struct {
	PdfToTextPath  string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	PdfToPpmPath   string `yaml:"pdftoppm_path" mapstructure:"pdftoppm_path"`
	TesseractPath  string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	TesseractLangs string `yaml:"tesseract_langs" mapstructure:"tesseract_langs"`
	OCRDPI         int    `yaml:"ocr_dpi" mapstructure:"ocr_dpi"`
	OCRProvider    string `yaml:"ocr_provider" mapstructure:"ocr_provider"`
	MistralKey     string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	MistralModel   string `yaml:"mistral_ocr_model" mapstructure:"mistral_ocr_model"`
	MaxAttempts    int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryPauseMs   int    `yaml:"retry_pause_ms" mapstructure:"retry_pause_ms"`
	TempDir        string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentFiles int `yaml:"max_concurrent_files" mapstructure:"max_concurrent_files"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Port          int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB   int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst     int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins   []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("VISURA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "visura.db")
	v.SetDefault("ateco.dataset_path", "tabella-ateco.xlsx")
	v.SetDefault("seismic.dataset_path", "zone-sismiche.yaml")
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("extract.pdftoppm_path", "pdftoppm")
	v.SetDefault("extract.tesseract_path", "tesseract")
	v.SetDefault("extract.tesseract_langs", "ita+eng")
	v.SetDefault("extract.ocr_dpi", 300)
	v.SetDefault("extract.ocr_provider", "local")
	v.SetDefault("extract.mistral_ocr_model", "pixtral-large-latest")
	v.SetDefault("extract.max_attempts", 2)
	v.SetDefault("extract.retry_pause_ms", 500)
	v.SetDefault("batch.max_concurrent_files", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.rate_per_second", 5)
	v.SetDefault("server.rate_burst", 10)
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
