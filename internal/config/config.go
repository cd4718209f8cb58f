package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CategoryPath maps a category label to its listing page path on the source site
type CategoryPath struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// SourceConfig describes the news site being scraped. Categories are
// scraped in the order listed.
type SourceConfig struct {
	Name         string         `yaml:"name"`
	BaseURL      string         `yaml:"base_url"`
	HomeCategory string         `yaml:"home_category"`
	Categories   []CategoryPath `yaml:"categories"`
}

// CategoryNames returns the configured category labels in scrape order
func (s SourceConfig) CategoryNames() []string {
	names := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		names = append(names, c.Name)
	}
	return names
}

// ScraperConfig controls fetching and extraction
type ScraperConfig struct {
	UserAgent           string
	ListingTimeout      time.Duration
	DetailTimeout       time.Duration
	MinHeadlineLength   int
	ReadabilityFallback bool
}

// ClassifierConfig holds language-model credentials. An empty APIKey
// disables classification.
type ClassifierConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	VerifyOnStartup bool
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port              int
	DataDir           string
	DBFile            string
	LegacyDataFiles   []string
	CacheTTL          time.Duration
	DefaultLimit      int
	MaxLimit          int
	ScrapeSchedule    string
	ScrapeOnStartup   bool
	ScheduledClassify bool
	EnableSwagger     bool
	Source            SourceConfig
	Scraper           ScraperConfig
	Classifier        ClassifierConfig
	Security          SecurityConfig
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

func Load() *Config {
	source := DefaultSource()
	if path := os.Getenv("SOURCES_FILE"); path != "" {
		loaded, err := LoadSourceFile(path)
		if err != nil {
			log.Printf("Warning: failed to load sources file %s, using defaults: %v", path, err)
		} else {
			source = *loaded
		}
	}

	defaultLimit := getEnvAsInt("DEFAULT_LIMIT", 100)
	maxLimit := getEnvAsInt("MAX_LIMIT", 500)
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}

	return &Config{
		Port:              getEnvAsInt("PORT", 8000),
		DataDir:           getEnv("DATA_DIR", "./data"),
		DBFile:            getEnv("DB_FILE", "news.db"),
		LegacyDataFiles:   getEnvAsStringSlice("LEGACY_DATA_FILES", []string{"news_data.json"}),
		CacheTTL:          getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		DefaultLimit:      defaultLimit,
		MaxLimit:          maxLimit,
		ScrapeSchedule:    getEnvAllowEmpty("SCRAPE_SCHEDULE", "@every 30m"),
		ScrapeOnStartup:   getEnvAsBool("SCRAPE_ON_STARTUP", true),
		ScheduledClassify: getEnvAsBool("SCHEDULED_CLASSIFY", true),
		EnableSwagger:     getEnvAsBool("ENABLE_SWAGGER", true),
		Source:            source,
		Scraper:           loadScraperConfig(),
		Classifier:        loadClassifierConfig(),
		Security:          loadSecurityConfig(),
	}
}

func loadScraperConfig() ScraperConfig {
	return ScraperConfig{
		UserAgent:           getEnv("SCRAPER_USER_AGENT", defaultUserAgent),
		ListingTimeout:      getEnvAsDuration("LISTING_TIMEOUT", 15*time.Second),
		DetailTimeout:       getEnvAsDuration("DETAIL_TIMEOUT", 10*time.Second),
		MinHeadlineLength:   getEnvAsInt("MIN_HEADLINE_LENGTH", 20),
		ReadabilityFallback: getEnvAsBool("READABILITY_FALLBACK", true),
	}
}

func loadClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		APIKey:          os.Getenv("OPENAI_API_KEY"),
		Model:           getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		BaseURL:         os.Getenv("OPENAI_BASE_URL"),
		Timeout:         getEnvAsDuration("CLASSIFIER_TIMEOUT", 20*time.Second),
		VerifyOnStartup: getEnvAsBool("CLASSIFIER_VERIFY", true),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 1<<20), // 1MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

// DefaultSource returns the built-in CNN source definition
func DefaultSource() SourceConfig {
	return SourceConfig{
		Name:         "CNN",
		BaseURL:      "https://www.cnn.com",
		HomeCategory: "top-stories",
		Categories: []CategoryPath{
			{Name: "world", Path: "/world"},
			{Name: "politics", Path: "/politics"},
			{Name: "business", Path: "/business"},
			{Name: "sports", Path: "/sport"},
			{Name: "entertainment", Path: "/entertainment"},
			{Name: "technology", Path: "/tech"},
			{Name: "style", Path: "/style"},
			{Name: "travel", Path: "/travel"},
			{Name: "science", Path: "/science"},
			{Name: "climate", Path: "/climate"},
			{Name: "weather", Path: "/weather"},
			{Name: "health", Path: "/health"},
		},
	}
}

// LoadSourceFile reads a YAML source definition
func LoadSourceFile(path string) (*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSource(data)
}

// ParseSource decodes and validates a YAML source definition
func ParseSource(data []byte) (*SourceConfig, error) {
	var src SourceConfig
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	if src.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	src.BaseURL = strings.TrimRight(src.BaseURL, "/")
	if src.Name == "" {
		src.Name = src.BaseURL
	}
	if src.HomeCategory == "" {
		src.HomeCategory = "top-stories"
	}

	seen := make(map[string]bool)
	for i, c := range src.Categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		seen[name] = true
		src.Categories[i].Name = name
	}

	return &src, nil
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAllowEmpty treats an explicitly empty variable as a value
func getEnvAllowEmpty(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultVal
}
