package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/TurahWilson/TubesIAE/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess      SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure      SecurityEventType = "LOGIN_FAILURE"
	EventSignupSuccess     SecurityEventType = "SIGNUP_SUCCESS"
	EventLogout            SecurityEventType = "LOGOUT"
	EventGatewayFailure    SecurityEventType = "GATEWAY_FAILURE"
	EventRateLimitExceeded SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventEndpointCall      SecurityEventType = "ENDPOINT_CALL"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	SessionID string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var securityLogger = log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix)
var securityDB *gorm.DB

// SetSecurityLoggerDB sets the gorm DB the audit entries are written to.
// Passing nil turns persistence off.
func SetSecurityLoggerDB(db *gorm.DB) {
	securityDB = db
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(value)
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// shortID keeps audit lines from carrying a full session cookie value.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// LogSecurityEvent logs a security event and persists it best-effort.
func LogSecurityEvent(event SecurityEvent) {
	msg := fmt.Sprintf("Event=%s Session=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(shortID(event.SessionID)),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)
	if len(event.Details) > 0 {
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}
	securityLogger.Println(msg)

	if securityDB == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SecurityLog{
		EventType: string(event.EventType),
		SessionID: shortID(event.SessionID),
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(FormatLocation(GetIPLocation(event.IP))),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := securityDB.Create(&entry).Error; err != nil {
		securityLogger.Printf("Failed to persist security event: %v", err)
	}
}

// LogLoginSuccess logs a successful login event
func LogLoginSuccess(sessionID, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginSuccess,
		SessionID: sessionID,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LogLoginFailure logs a failed login attempt
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogSignupSuccess logs an account registered through the dashboard.
func LogSignupSuccess(email, role, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventSignupSuccess,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "Account registered",
		Details:   map[string]interface{}{"role": role},
	})
}

// LogLogout logs a logout event
func LogLogout(sessionID, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLogout,
		SessionID: sessionID,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged out",
	})
}

// LogGatewayFailure records a remote API call that could not be completed.
func LogGatewayFailure(sessionID, email, ip, operation, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventGatewayFailure,
		SessionID: sessionID,
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("%s failed: %s", operation, reason),
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(ip, endpoint string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

// SetSecurityLoggerForTest swaps the audit logger and returns the previous one.
func SetSecurityLoggerForTest(logger *log.Logger) *log.Logger {
	prev := securityLogger
	securityLogger = logger
	return prev
}
