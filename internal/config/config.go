package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	FrontendURL    string
	AppURL         string
	RequestTimeout time.Duration

	Mongo MongoConfig
	JWT   JWTConfig
	SMTP  SMTPConfig
	Groq  GroqConfig
	Redis RedisConfig
	Limit LimitConfig
	Log   LogConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether outgoing mail is configured.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

type LimitConfig struct {
	Max    int
	Window time.Duration
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

// Load reads .env (if present), an optional YAML file named by CONFIG_PATH and the process
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	cfg := &Config{
		Port:           v.GetString("port"),
		FrontendURL:    v.GetString("frontend_url"),
		AppURL:         strings.TrimRight(v.GetString("app_url"), "/"),
		RequestTimeout: v.GetDuration("request_timeout"),
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			User:     v.GetString("smtp.user"),
			Password: v.GetString("smtp.password"),
			From:     v.GetString("smtp.from"),
		},
		Groq: GroqConfig{
			APIKey:  strings.TrimSpace(v.GetString("groq.api_key")),
			Model:   v.GetString("groq.model"),
			BaseURL: v.GetString("groq.base_url"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			Namespace: v.GetString("redis.namespace"),
		},
		Limit: LimitConfig{
			Max:    v.GetInt("rate_limit.max"),
			Window: v.GetDuration("rate_limit.window"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	if cfg.JWT.Secret == "" {
		return nil, ErrMissingSecret
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("app_url", "http://localhost:3000")
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "ratemy")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("groq.model", "llama-3.1-70b-versatile")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("redis.namespace", "ratemy")
	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("log.level", "info")
}

// bindEnv maps the historical variable names onto config keys.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("frontend_url", "FRONTEND_URL")
	_ = v.BindEnv("app_url", "APP_URL")
	_ = v.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	_ = v.BindEnv("mongo.uri", "MONGODB_URI")
	_ = v.BindEnv("mongo.database", "DB_NAME")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.ttl", "JWT_TTL")
	_ = v.BindEnv("smtp.host", "SMTP_HOST")
	_ = v.BindEnv("smtp.port", "SMTP_PORT")
	_ = v.BindEnv("smtp.user", "SMTP_USER")
	_ = v.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = v.BindEnv("smtp.from", "SMTP_FROM")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.model", "GROQ_MODEL")
	_ = v.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.namespace", "REDIS_NAMESPACE")
	_ = v.BindEnv("rate_limit.max", "RATE_LIMIT_MAX")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.pretty", "LOG_PRETTY")
}
