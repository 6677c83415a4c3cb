package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	defaultAPIBaseURL       = "http://localhost:8000"
	defaultSessionCookie    = "dashboard_session"
	defaultSessionRetention = 30
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `json:"appname"`
	AppEnv  string `json:"appenv"`
	AppPort uint16 `json:"appport"`
	GinMode string `json:"ginmode"`

	// APIBaseURL is the root of the remote clinical records gateway.
	APIBaseURL string        `json:"apibaseurl"`
	APITimeout time.Duration `json:"apitimeout"`

	DBDriver string `json:"dbdriver"`
	DBHost   string `json:"dbhost"`
	DBPort   uint16 `json:"dbport"`
	DBName   string `json:"dbname"`
	DBUSER   string `json:"dbuser"`
	DBPass   string `json:"dbpass"`

	SessionCookie    string        `json:"sessioncookie"`
	SessionRetention int           `json:"sessionretention"`
	SessionSecure    bool          `json:"sessionsecure"`
	CORSOrigins      []string      `json:"corsorigins"`
	RateLimit        int           `json:"ratelimit"`
	RateWindow       time.Duration `json:"ratewindow"`
	GeoIPPath        string        `json:"geoippath"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine when the environment is provided by the host.
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file loaded: %v", err)
		}
		config = FromEnv()
	})
	return config
}

// FromEnv builds a Config from the current process environment without caching it.
func FromEnv() *Config {
	appPort, _ := strconv.ParseUint(os.Getenv("APPPORT"), 10, 16)
	if appPort == 0 {
		appPort = 8080
	}
	dbPort, _ := strconv.ParseUint(os.Getenv("DBPORT"), 10, 16)
	retention, err := strconv.Atoi(os.Getenv("SESSION_RETENTION_DAYS"))
	if err != nil || retention < 0 {
		retention = defaultSessionRetention
	}
	rateLimit, _ := strconv.Atoi(os.Getenv("RATE_LIMIT"))

	return &Config{
		AppName:          getEnv("APPNAME", "Clinical Records Dashboard"),
		AppEnv:           os.Getenv("APPENV"),
		AppPort:          uint16(appPort),
		GinMode:          getEnv("GINMODE", "release"),
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBaseURL), "/"),
		APITimeout:       parseDuration(os.Getenv("API_TIMEOUT")),
		DBDriver:         strings.ToLower(getEnv("DBDRIVER", "mysql")),
		DBHost:           os.Getenv("DBHOST"),
		DBPort:           uint16(dbPort),
		DBName:           os.Getenv("DBNAME"),
		DBUSER:           os.Getenv("DBUSER"),
		DBPass:           os.Getenv("DBPASS"),
		SessionCookie:    getEnv("SESSION_COOKIE", defaultSessionCookie),
		SessionRetention: retention,
		SessionSecure:    parseBool(os.Getenv("SESSION_SECURE")),
		CORSOrigins:      splitList(os.Getenv("CORS_ORIGINS")),
		RateLimit:        rateLimit,
		RateWindow:       parseDuration(os.Getenv("RATE_WINDOW")),
		GeoIPPath:        os.Getenv("GEOIP_DB_PATH"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts Go durations ("1m30s") or plain seconds ("90").
func parseDuration(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// parseBool accepts 1, true and yes in any case.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ConnectDB opens the session database. APPENV=test always uses an in-memory SQLite database.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(cfg *Config) (gorm.Dialector, error) {
	if cfg.AppEnv == "test" {
		return sqlite.Open("file::memory:?cache=shared"), nil
	}
	switch cfg.DBDriver {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", cfg.DBHost, cfg.DBPort, cfg.DBUSER, cfg.DBPass, cfg.DBName)
		return postgres.Open(dsn), nil
	case "sqlite":
		name := cfg.DBName
		if name == "" {
			name = "dashboard.db"
		}
		return sqlite.Open(name), nil
	default:
		return nil, fmt.Errorf("unsupported DBDRIVER %q", cfg.DBDriver)
	}
}
