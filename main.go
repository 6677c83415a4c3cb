// main.go
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/TurahWilson/TubesIAE/config"
	"github.com/TurahWilson/TubesIAE/dashboard"
	"github.com/TurahWilson/TubesIAE/endpoint"
	"github.com/TurahWilson/TubesIAE/gateway"
	"github.com/TurahWilson/TubesIAE/jobs"
	"github.com/TurahWilson/TubesIAE/middleware"
	"github.com/TurahWilson/TubesIAE/model"
	"github.com/TurahWilson/TubesIAE/session"
	"github.com/TurahWilson/TubesIAE/util"
	"github.com/TurahWilson/TubesIAE/web"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := session.Migrate(db); err != nil {
		log.Fatalf("Error migrating sessions: %v", err)
	}
	if err := db.AutoMigrate(&model.SecurityLog{}); err != nil {
		log.Fatalf("Error migrating security logs: %v", err)
	}
	util.SetSecurityLoggerDB(db)

	rdb, err := config.ConnectRedis()
	if err != nil {
		// Sessions still work from SQL alone.
		log.Printf("Redis unavailable, continuing without it: %v", err)
		rdb = nil
	}

	if err := util.InitGeoIP(cfg.GeoIPPath); err != nil {
		log.Printf("GeoIP disabled: %v", err)
	}
	defer util.CloseGeoIP()

	api := gateway.New(cfg.APIBaseURL, cfg.APITimeout)
	store := session.NewStore(db, rdb, api)
	router := dashboard.NewRouter(dashboard.DefaultPanels(api)...)
	retention := time.Duration(cfg.SessionRetention) * 24 * time.Hour

	janitor, err := jobs.StartSessionJanitor(store, retention, jobs.DefaultJanitorSchedule)
	if err != nil {
		log.Fatalf("Error scheduling session janitor: %v", err)
	}
	defer janitor.Stop()

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatalf("Error parsing templates: %v", err)
	}

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middleware.LoadSession(store, cfg.SessionCookie))
	r.Use(middleware.EndpointCallLogger())

	limiter := middleware.RateLimiter(rdb, middleware.RateLimitConfig{Limit: cfg.RateLimit, Window: cfg.RateWindow})
	cookie := endpoint.CookieConfig{Name: cfg.SessionCookie, Retention: retention, Secure: cfg.SessionSecure}
	endpoint.NewHandler(store, api, router, cookie).Routes(r, limiter)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	log.Printf("%s listening on %s, remote API %s", cfg.AppName, address, api.BaseURL())
	if err := r.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
