package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Backend names.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendLocal    = "local"
	BackendS3       = "s3"

	DriverPGX  = "pgx"
	DriverSQL  = "sql"
	DriverSQLX = "sqlx"

	insecureJWTSecret = "change-me-in-production"
)

// ErrInvalidConfig is returned for unparsable or inconsistent settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting of the library binaries.
type Config struct {
	DataDir    string
	BooksFile  string
	UsersFile  string
	LedgerFile string

	CatalogBackend string
	LedgerBackend  string
	PostgresDSN    string
	PostgresDriver string
	SQLitePath     string
	MongoURI       string
	MongoDB        string

	// PostgresReplicaDSN, when set, serves the ledger reads of the pgx driver from a read replica.
	PostgresReplicaDSN string

	StrictAvailability bool
	DefaultCopies      int
	BcryptCost         int

	Port      string
	JWTSecret string
	TokenTTL  time.Duration

	LogLevel  string
	LogFormat string

	ImageBackend  string
	ImageDir      string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	MaxUploadMB   int64
}

// Load reads .env (if present) into the environment and then builds the Config from it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Join(ErrInvalidConfig, fmt.Errorf("read .env: %w", err))
	}

	return FromEnv()
}

// FromEnv builds the Config from the environment. Unset variables take their defaults.
func FromEnv() (Config, error) {
	var errs []error

	dataDir := getEnv("DATA_DIR", "data")

	cfg := Config{
		DataDir:    dataDir,
		BooksFile:  getEnv("BOOKS_FILE", filepath.Join(dataDir, "books.json")),
		UsersFile:  getEnv("USERS_FILE", filepath.Join(dataDir, "users.json")),
		LedgerFile: getEnv("LEDGER_FILE", filepath.Join(dataDir, "ledger.json")),

		CatalogBackend: strings.ToLower(getEnv("CATALOG_BACKEND", BackendJSON)),
		LedgerBackend:  strings.ToLower(getEnv("LEDGER_BACKEND", BackendJSON)),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		PostgresDriver: strings.ToLower(getEnv("POSTGRES_DRIVER", DriverPGX)),
		SQLitePath:     getEnv("SQLITE_PATH", filepath.Join(dataDir, "library.db")),
		MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGODB_DB", "library"),

		PostgresReplicaDSN: getEnv("POSTGRES_REPLICA_DSN", ""),

		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		ImageBackend:  strings.ToLower(getEnv("IMAGE_BACKEND", BackendLocal)),
		ImageDir:      getEnv("IMAGE_DIR", filepath.Join(dataDir, "images")),
		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	var err error

	if cfg.StrictAvailability, err = getEnvBool("STRICT_AVAILABILITY", false); err != nil {
		errs = append(errs, err)
	}

	if cfg.DefaultCopies, err = getEnvInt("DEFAULT_COPIES", 1); err != nil {
		errs = append(errs, err)
	}

	if cfg.BcryptCost, err = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		errs = append(errs, err)
	}

	if cfg.TokenTTL, err = getEnvDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err)
	}

	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		errs = append(errs, err)
	}

	cfg.MaxUploadMB = int64(maxUploadMB)

	if len(errs) > 0 {
		return Config{}, errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var problems []string

	if !slices.Contains([]string{BackendJSON, BackendSQLite, BackendPostgres, BackendMongo}, c.CatalogBackend) {
		problems = append(problems, fmt.Sprintf("CATALOG_BACKEND %q is not one of json, sqlite, postgres, mongo", c.CatalogBackend))
	}

	if !slices.Contains([]string{BackendJSON, BackendPostgres}, c.LedgerBackend) {
		problems = append(problems, fmt.Sprintf("LEDGER_BACKEND %q is not one of json, postgres", c.LedgerBackend))
	}

	if (c.CatalogBackend == BackendPostgres || c.LedgerBackend == BackendPostgres) && c.PostgresDSN == "" {
		problems = append(problems, "POSTGRES_DSN is required for the postgres backend")
	}

	if c.LedgerBackend == BackendPostgres && !slices.Contains([]string{DriverPGX, DriverSQL, DriverSQLX}, c.PostgresDriver) {
		problems = append(problems, fmt.Sprintf("POSTGRES_DRIVER %q is not one of pgx, sql, sqlx", c.PostgresDriver))
	}

	if c.PostgresReplicaDSN != "" && (c.LedgerBackend != BackendPostgres || c.PostgresDriver != DriverPGX) {
		problems = append(problems, "POSTGRES_REPLICA_DSN needs LEDGER_BACKEND postgres with POSTGRES_DRIVER pgx")
	}

	if c.CatalogBackend == BackendMongo && (c.MongoURI == "" || c.MongoDB == "") {
		problems = append(problems, "MONGODB_URI and MONGODB_DB are required for the mongo backend")
	}

	if c.DefaultCopies < 0 {
		problems = append(problems, "DEFAULT_COPIES must not be negative")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if !slices.Contains([]string{BackendLocal, BackendS3}, c.ImageBackend) {
		problems = append(problems, fmt.Sprintf("IMAGE_BACKEND %q is not one of local, s3", c.ImageBackend))
	}

	if c.ImageBackend == BackendS3 && c.S3Bucket == "" {
		problems = append(problems, "AWS_S3_BUCKET is required for the s3 image backend")
	}

	if c.MaxUploadMB <= 0 {
		problems = append(problems, "MAX_UPLOAD_MB must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	return nil
}

// ValidateServer is Validate plus the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.JWTSecret == "" || c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("%w: JWT_SECRET must be set to a strong secret", ErrInvalidConfig)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: TOKEN_TTL must be positive", ErrInvalidConfig)
	}

	return nil
}

// UsesDataDir reports whether any store keeps its files in the data directory.
func (c Config) UsesDataDir() bool {
	return c.CatalogBackend == BackendJSON || c.CatalogBackend == BackendSQLite || c.LedgerBackend == BackendJSON
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}

	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}
