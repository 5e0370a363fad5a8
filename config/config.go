package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultNoteNumberSeed is the value the note-number counter starts above
	DefaultNoteNumberSeed = 3804

	// DefaultOrigin is the shipping origin printed on notes when none is given
	DefaultOrigin = "Juan Manuel de Rosas 1325"
)

type Config struct {
	ServerPort  string
	DBPath      string
	Environment string
	StorageDir  string
	// Turso (remote libsql)
	TursoDatabaseURL string
	TursoAuthToken   string
	// Cloudflare R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	NotifyEmail   string
	// Delivery notes
	DefaultOrigin   string
	NoteNumberSeed  int
	CompanyName     string
	CompanyTaxID    string
	CompanyActivity string
	ChromePath      string
	// Pending digest job
	DigestCron        string
	DigestMinAgeHours int
	Timezone          string
	// Other
	AllowedOrigins []string
	AppURL         string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DBPath:            getEnv("DB_PATH", "db/app.db"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		StorageDir:        getEnv("STORAGE_DIR", "storage"),
		TursoDatabaseURL:  getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:    getEnv("TURSO_AUTH_TOKEN", ""),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		EmailFrom:         getEnv("EMAIL_FROM", "remitos@example.com"),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Remitos"),
		EmailTestMode:     getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
		DefaultOrigin:     getEnv("DEFAULT_ORIGIN", DefaultOrigin),
		NoteNumberSeed:    getEnvInt("NOTE_NUMBER_SEED", DefaultNoteNumberSeed),
		CompanyName:       getEnv("COMPANY_NAME", "Gonzalo Herna Yelmo Beltran"),
		CompanyTaxID:      getEnv("COMPANY_TAX_ID", "20-30743247-2"),
		CompanyActivity:   getEnv("COMPANY_ACTIVITY", "Transporte de mercadería entre sucursales"),
		ChromePath:        getEnv("CHROME_PATH", ""),
		DigestCron:        getEnv("DIGEST_CRON", "0 8 * * *"),
		DigestMinAgeHours: getEnvInt("DIGEST_MIN_AGE_HOURS", 24),
		Timezone:          getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:            getEnv("APP_URL", "http://localhost:8080"),
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Debug().Str("key", key).Str("default", defaultValue).Msg("Using default value")
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer, using default")
		return defaultValue
	}
	return n
}
