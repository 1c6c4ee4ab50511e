package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"clv-forecast/pkg/models"

	"github.com/joho/godotenv"
)

type Config struct {
	Source    SourceConfig
	Database  DatabaseConfig
	Scoring   models.Config
	Server    ServerConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	OutputDir string
}

type SourceConfig struct {
	Kind     string // csv | mysql | postgres
	CSVPath  string
	MySQLDSN string
	Table    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

type RedisConfig struct {
	Addr string // vide = cache désactivé
	TTL  time.Duration
}

type LoggerConfig struct {
	Level string
}

func Load() (*Config, error) {
	// .env optionnel : les variables d'environnement suffisent (Docker/K8s)
	for _, envFile := range []string{".env", "../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	scoring := models.DefaultConfig()
	var err error
	if scoring.HorizonPeriods, err = getInt("CLV_HORIZON_PERIODS", scoring.HorizonPeriods); err != nil {
		return nil, err
	}
	if scoring.PeriodDays, err = getFloat("CLV_PERIOD_DAYS", scoring.PeriodDays); err != nil {
		return nil, err
	}
	if scoring.DiscountRate, err = getFloat("CLV_DISCOUNT_RATE", scoring.DiscountRate); err != nil {
		return nil, err
	}
	if scoring.Penalizer, err = getFloat("CLV_PENALIZER", scoring.Penalizer); err != nil {
		return nil, err
	}
	if scoring.TopN, err = getInt("CLV_TOP_N", scoring.TopN); err != nil {
		return nil, err
	}
	if scoring.HistogramBins, err = getInt("CLV_HISTOGRAM_BINS", scoring.HistogramBins); err != nil {
		return nil, err
	}
	scoring.TimeUnit = models.TimeUnit(getEnv("CLV_TIME_UNIT", string(models.UnitDay)))

	ttlHours, err := getInt("REDIS_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}

	return &Config{
		Source: SourceConfig{
			Kind:     getEnv("CLV_SOURCE", "csv"),
			CSVPath:  getEnv("CLV_CSV_PATH", "cdnow.csv"),
			MySQLDSN: getEnv("CLV_MYSQL_DSN", ""),
			Table:    getEnv("CLV_TABLE", "transactions"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "clv"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Scoring: scoring,
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
			TTL:  time.Duration(ttlHours) * time.Hour,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OutputDir: getEnv("CLV_OUTPUT_DIR", "reports"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
