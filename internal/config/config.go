package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	TokenTTLHours     int
	BcryptCost        int
	Port              string
	CorsOrigins       []string
	LogLevel          string
	LogFormat         string
	MaxPhotoBytes     int64
	ReferenceCacheTTL int
	RedisURL          string
	Region            Region
	LoginRatePerMin   int
	PageSize          int
}

// Region bounds the coordinates accepted for farms and reports.
type Region struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func (r Region) ContainsLat(lat float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat
}

func (r Region) ContainsLon(lon float64) bool {
	return lon >= r.MinLon && lon <= r.MaxLon
}

func Load() Config {
	return Config{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTIssuer:         envOr("JWT_ISSUER", "agrireport"),
		TokenTTLHours:     envOrInt("TOKEN_TTL_HOURS", 168),
		BcryptCost:        clampMin(envOrInt("BCRYPT_COST", 10), 10),
		Port:              envOr("PORT", "8080"),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "json"),
		MaxPhotoBytes:     int64(envOrInt("MAX_PHOTO_BYTES", 10<<20)),
		ReferenceCacheTTL: envOrInt("REFERENCE_CACHE_TTL_SECONDS", 3600),
		RedisURL:          envOr("REDIS_URL", ""),
		Region: Region{
			MinLat: envOrFloat("REGION_MIN_LAT", 5.5),
			MaxLat: envOrFloat("REGION_MAX_LAT", 7.0),
			MinLon: envOrFloat("REGION_MIN_LON", 124.0),
			MaxLon: envOrFloat("REGION_MAX_LON", 125.5),
		},
		LoginRatePerMin: envOrInt("LOGIN_RATE_PER_MINUTE", 10),
		PageSize:        envOrInt("PAGE_SIZE", 10),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func clampMin(value, min int) int {
	if value < min {
		return min
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
