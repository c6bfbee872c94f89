package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string // mysql | postgres | memory
	DatabaseDSN   string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	KafkaBrokers     []string
	KafkaTopicPrefix string

	CountriesCSV  string
	ImportWorkers int

	MutationRPS   float64
	MutationBurst int
	CORSOrigins   []string
	HTTPTimeout   time.Duration

	Paging Paging
}

// Paging mirrors app.PagingConfig without importing the app layer.
type Paging struct {
	ReviewsPerPage  int
	ToursPerPage    int
	AgenciesPerPage int
	RequestsPerPage int
	LeftSide        int
	RightSide       int
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("reading .env")
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		StorageDriver: strings.ToLower(env("STORAGE_DRIVER", "mysql")),
		DatabaseDSN:   env("DATABASE_DSN", env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tours?parseTime=true&charset=utf8mb4&loc=UTC")),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		KafkaBrokers:     list(env("KAFKA_BROKERS", "")),
		KafkaTopicPrefix: env("KAFKA_TOPIC_PREFIX", "tours"),

		CountriesCSV:  env("COUNTRIES_CSV", "data/countries.csv"),
		ImportWorkers: atoi("IMPORT_WORKERS", 4),

		MutationRPS:   atof("MUTATION_RPS", 2),
		MutationBurst: atoi("MUTATION_BURST", 5),
		CORSOrigins:   list(env("CORS_ORIGINS", "*")),
		HTTPTimeout:   time.Duration(positive("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,

		Paging: Paging{
			ReviewsPerPage:  positive("REVIEWS_PER_PAGE", 10),
			ToursPerPage:    positive("TOURS_PER_PAGE", 15),
			AgenciesPerPage: positive("AGENCIES_PER_PAGE", 15),
			RequestsPerPage: positive("REQUESTS_PER_PAGE", 15),
			LeftSide:        nonNegative("NUM_PAGES_LEFT_SIDE", 2),
			RightSide:       nonNegative("NUM_PAGES_RIGHT_SIDE", 2),
		},
	}
	switch c.StorageDriver {
	case "mysql", "postgres", "memory":
	default:
		log.Warn().Str("driver", c.StorageDriver).Msg("unknown STORAGE_DRIVER, using mysql")
		c.StorageDriver = "mysql"
	}
	if len(c.KafkaBrokers) == 0 {
		log.Warn().Msg("KAFKA_BROKERS is empty, events are dropped")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func positive(k string, def int) int {
	if n := atoi(k, def); n > 0 {
		return n
	}
	return def
}

func nonNegative(k string, def int) int {
	if n := atoi(k, def); n >= 0 {
		return n
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
