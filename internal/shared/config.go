package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"museum_directory/internal/domain"
)

const (
	recordsV1Endpoint = "https://data.culture.gouv.fr/api/records/1.0/search/"
	exploreV2Endpoint = "https://data.culture.gouv.fr/api/explore/v2.1/catalog/datasets/musees-de-france-base-museofile/records"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	CatalogEndpoints   []string
	CatalogDataset     string
	CatalogSchema      domain.SchemaVersion
	CatalogAPIKey      string
	CatalogTimeout     time.Duration
	CatalogRPS         int
	CatalogDefaultRows int
	CatalogMaxRows     int
	MockFallback       bool
	Facets             string

	CacheTTL    time.Duration
	WarmWorkers int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("ignoring unreadable .env file")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", ""),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		CatalogDataset:     env("CATALOG_DATASET", "musees-de-france-base-museofile"),
		CatalogSchema:      domain.SchemaVersion(env("CATALOG_SCHEMA", string(domain.SchemaRecordsV1))),
		CatalogAPIKey:      env("CATALOG_API_KEY", ""),
		CatalogTimeout:     time.Duration(atoi("CATALOG_TIMEOUT_SECONDS", 10)) * time.Second,
		CatalogRPS:         atoi("CATALOG_RPS", 5),
		CatalogDefaultRows: atoi("CATALOG_DEFAULT_ROWS", 20),
		CatalogMaxRows:     atoi("CATALOG_MAX_ROWS", 100),
		MockFallback:       boolean("CATALOG_MOCK_FALLBACK", true),
		Facets:             env("CATALOG_FACETS", "live"),

		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		WarmWorkers: atoi("WARM_WORKERS", 4),
	}
	if !c.CatalogSchema.Valid() {
		log.Warn().Str("schema", string(c.CatalogSchema)).Msg("unknown CATALOG_SCHEMA, using records-v1")
		c.CatalogSchema = domain.SchemaRecordsV1
	}
	c.CatalogEndpoints = list("CATALOG_ENDPOINTS")
	if len(c.CatalogEndpoints) == 0 {
		c.CatalogEndpoints = []string{defaultEndpoint(c.CatalogSchema)}
	}
	if !c.MockFallback {
		log.Info().Msg("mock catalog fallback disabled")
	}
	return c
}

func defaultEndpoint(v domain.SchemaVersion) string {
	if v == domain.SchemaExploreV2 {
		return exploreV2Endpoint
	}
	return recordsV1Endpoint
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
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}

// list splits a comma separated variable, dropping blanks.
func list(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
