package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoDatabase is returned alongside an otherwise valid Config when
// DATABASE_URL is unset. Callers may continue in sample mode.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Config struct {
	Env        string `validate:"required"`
	ListenAddr string `validate:"required"`
	LogLevel   string `validate:"oneof=debug info warn warning error"`

	DatabaseURL   string
	RunMigrations bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gt=0"`

	EvalWorkers int   `validate:"gte=1,lte=256"`
	SampleCount int   `validate:"gte=0,lte=10000"`
	SampleSeed  int64 // 0 seeds from the clock

	MappingFile string
	RulesFile   string

	RestrictedCodes         []string
	RuleEnabled             bool
	RequiredDocuments       []string `validate:"min=1,dive,required"`
	FinancialAttentionScore float64  `validate:"gte=0,lte=100"`
	FinancialFailScore      float64  `validate:"gte=0,lte=100,gtefield=FinancialAttentionScore"`

	CORSOrigins []string `validate:"min=1"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("EVAL_WORKERS", 4)
	v.SetDefault("SAMPLE_COUNT", 10)
	v.SetDefault("SAMPLE_SEED", 0)
	v.SetDefault("RESTRICTED_CODES", "3579,6531,7371")
	v.SetDefault("RULE_ENABLED", true)
	v.SetDefault("REQUIRED_DOCUMENTS", "Application,Financial Statement")
	v.SetDefault("FINANCIAL_ATTENTION_SCORE", 60)
	v.SetDefault("FINANCIAL_FAIL_SCORE", 85)
	v.SetDefault("CORS_ORIGINS", "*")
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := Config{
		Env:                     v.GetString("APP_ENV"),
		ListenAddr:              v.GetString("LISTEN_ADDR"),
		LogLevel:                strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:             strings.TrimSpace(v.GetString("DATABASE_URL")),
		RunMigrations:           v.GetBool("RUN_MIGRATIONS"),
		RedisAddr:               strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:           v.GetString("REDIS_PASSWORD"),
		RedisDB:                 v.GetInt("REDIS_DB"),
		CacheTTL:                v.GetDuration("CACHE_TTL"),
		EvalWorkers:             v.GetInt("EVAL_WORKERS"),
		SampleCount:             v.GetInt("SAMPLE_COUNT"),
		SampleSeed:              v.GetInt64("SAMPLE_SEED"),
		MappingFile:             v.GetString("MAPPING_FILE"),
		RulesFile:               v.GetString("RULES_FILE"),
		RestrictedCodes:         splitList(v.GetString("RESTRICTED_CODES")),
		RuleEnabled:             v.GetBool("RULE_ENABLED"),
		RequiredDocuments:       splitList(v.GetString("REQUIRED_DOCUMENTS")),
		FinancialAttentionScore: v.GetFloat64("FINANCIAL_ATTENTION_SCORE"),
		FinancialFailScore:      v.GetFloat64("FINANCIAL_FAIL_SCORE"),
		CORSOrigins:             splitList(v.GetString("CORS_ORIGINS")),
	}
	// An explicitly empty list means no restricted industries; viper would
	// fall back to the default for an empty variable.
	if raw, ok := os.LookupEnv("RESTRICTED_CODES"); ok {
		cfg.RestrictedCodes = splitList(raw)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

// SampleMode reports whether records come from the generator rather than a
// document store.
func (c Config) SampleMode() bool { return c.DatabaseURL == "" }

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
