package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	STORAGE_BACKEND=s3
//	S3_ENDPOINT=s3.eu-central-1.amazonaws.com
//	SOURCE_BUCKET=xetra-1234
//	TARGET_BUCKET=xetra-1234-final
//	REPORT_START_DATE=2022-12-27
//	REPORT_FORMAT=parquet
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Storage  StorageConfig  // object store backend and buckets
	Postgres PostgresConfig // PostgreSQL connection settings (postgres backend)
	Report   ReportConfig   // report run settings
	Source   SourceConfig   // source batch layout
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string // The TCP port the HTTP server will listen on (e.g., "8080")
}

// StorageConfig selects where buckets live.
//
// Fields:
//   - Backend: "fs", "s3" or "postgres".
//   - FSRoot: directory holding one subdirectory per bucket (fs backend).
//   - SourceBucket / TargetBucket: bucket names.
type StorageConfig struct {
	Backend      string
	FSRoot       string
	SourceBucket string
	TargetBucket string
	S3           S3Config
}

// S3Config holds the S3 endpoint and static credentials.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ReportConfig drives one report run.
type ReportConfig struct {
	StartDate       string
	KeyPrefix       string
	Format          string
	ClosingPrice    string
	FailOnNonFinite bool
	LedgerKey       string
}

// SourceConfig names the source columns and bounds read concurrency.
type SourceConfig struct {
	ColISIN         string
	ColDate         string
	ColTime         string
	ColStartPrice   string
	ColMaxPrice     string
	ColMinPrice     string
	ColEndPrice     string
	ColTradedVolume string
	Parallel        int
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

var (
	backends      = []string{"fs", "s3", "postgres"}
	formats       = []string{"parquet", "csv"}
	closingPrices = []string{"start", "end"}
)

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() will
//     terminate the app with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("STORAGE_BACKEND", "fs")
	viper.SetDefault("FS_ROOT", "./data")
	viper.SetDefault("SOURCE_BUCKET", "xetra-1234")
	viper.SetDefault("TARGET_BUCKET", "xetra-1234-final")
	viper.SetDefault("S3_ENDPOINT", "s3.amazonaws.com")
	viper.SetDefault("S3_ACCESS_KEY", "")
	viper.SetDefault("S3_SECRET_KEY", "")
	viper.SetDefault("S3_REGION", "")
	viper.SetDefault("S3_USE_SSL", true)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "xetrapulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("REPORT_START_DATE", "2022-12-27")
	viper.SetDefault("REPORT_KEY_PREFIX", "xetra_daily_")
	viper.SetDefault("REPORT_FORMAT", "parquet")
	viper.SetDefault("REPORT_CLOSING_PRICE", "start")
	viper.SetDefault("REPORT_FAIL_ON_NON_FINITE", false)
	viper.SetDefault("LEDGER_KEY", "meta_file.csv")

	viper.SetDefault("SRC_COL_ISIN", "ISIN")
	viper.SetDefault("SRC_COL_DATE", "Date")
	viper.SetDefault("SRC_COL_TIME", "Time")
	viper.SetDefault("SRC_COL_START_PRICE", "StartPrice")
	viper.SetDefault("SRC_COL_MAX_PRICE", "MaxPrice")
	viper.SetDefault("SRC_COL_MIN_PRICE", "MinPrice")
	viper.SetDefault("SRC_COL_END_PRICE", "EndPrice")
	viper.SetDefault("SRC_COL_TRADED_VOLUME", "TradedVolume")
	viper.SetDefault("EXTRACT_PARALLEL", 0)

	viper.SetDefault("TRACING_ENABLED", false)

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			FSRoot:       viper.GetString("FS_ROOT"),
			SourceBucket: viper.GetString("SOURCE_BUCKET"),
			TargetBucket: viper.GetString("TARGET_BUCKET"),
			S3: S3Config{
				Endpoint:  viper.GetString("S3_ENDPOINT"),
				AccessKey: viper.GetString("S3_ACCESS_KEY"),
				SecretKey: viper.GetString("S3_SECRET_KEY"),
				Region:    viper.GetString("S3_REGION"),
				UseSSL:    viper.GetBool("S3_USE_SSL"),
			},
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Report: ReportConfig{
			StartDate:       viper.GetString("REPORT_START_DATE"),
			KeyPrefix:       viper.GetString("REPORT_KEY_PREFIX"),
			Format:          strings.ToLower(strings.TrimPrefix(viper.GetString("REPORT_FORMAT"), ".")),
			ClosingPrice:    strings.ToLower(viper.GetString("REPORT_CLOSING_PRICE")),
			FailOnNonFinite: viper.GetBool("REPORT_FAIL_ON_NON_FINITE"),
			LedgerKey:       viper.GetString("LEDGER_KEY"),
		},
		Source: SourceConfig{
			ColISIN:         viper.GetString("SRC_COL_ISIN"),
			ColDate:         viper.GetString("SRC_COL_DATE"),
			ColTime:         viper.GetString("SRC_COL_TIME"),
			ColStartPrice:   viper.GetString("SRC_COL_START_PRICE"),
			ColMaxPrice:     viper.GetString("SRC_COL_MAX_PRICE"),
			ColMinPrice:     viper.GetString("SRC_COL_MIN_PRICE"),
			ColEndPrice:     viper.GetString("SRC_COL_END_PRICE"),
			ColTradedVolume: viper.GetString("SRC_COL_TRADED_VOLUME"),
			Parallel:        viper.GetInt("EXTRACT_PARALLEL"),
		},
		Tracing: TracingConfig{
			Enabled: viper.GetBool("TRACING_ENABLED"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// validateConfig terminates the application when a required variable is
// missing or holds an unsupported value.
func validateConfig() {
	if bad := problems(AppConfig); len(bad) > 0 {
		log.Fatalf("❌ Invalid configuration: %v\n", bad)
	}
}

// problems lists every missing or invalid key of cfg.
func problems(cfg Config) []string {
	var out []string
	need := func(ok bool, key string) {
		if !ok {
			out = append(out, key)
		}
	}

	need(cfg.Server.Port != "", "SERVER_PORT")
	need(cfg.Storage.SourceBucket != "", "SOURCE_BUCKET")
	need(cfg.Storage.TargetBucket != "", "TARGET_BUCKET")
	need(cfg.Report.StartDate != "", "REPORT_START_DATE")
	need(cfg.Report.LedgerKey != "", "LEDGER_KEY")
	need(oneOf(cfg.Storage.Backend, backends), "STORAGE_BACKEND="+cfg.Storage.Backend)
	need(oneOf(cfg.Report.Format, formats), "REPORT_FORMAT="+cfg.Report.Format)
	need(oneOf(cfg.Report.ClosingPrice, closingPrices), "REPORT_CLOSING_PRICE="+cfg.Report.ClosingPrice)
	need(cfg.Source.Parallel >= 0, "EXTRACT_PARALLEL")

	switch cfg.Storage.Backend {
	case "fs":
		need(cfg.Storage.FSRoot != "", "FS_ROOT")
	case "s3":
		need(cfg.Storage.S3.Endpoint != "", "S3_ENDPOINT")
	case "postgres":
		need(cfg.Postgres.Host != "", "POSTGRES_HOST")
		need(cfg.Postgres.Port != 0, "POSTGRES_PORT")
		need(cfg.Postgres.User != "", "POSTGRES_USER")
		need(cfg.Postgres.Password != "", "POSTGRES_PASSWORD")
		need(cfg.Postgres.DBName != "", "POSTGRES_DB")
	}
	return out
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
