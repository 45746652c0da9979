// Package audit provides security audit logging for SIEM consumption.
// It logs security-relevant events in structured JSON format for easy parsing
// and integration with security information and event management systems.
package audit

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventLoginFailure is logged when a login attempt is rejected.
	EventLoginFailure SecurityEventType = "login_failure"
	// EventLoginSuccess is logged when a session is issued.
	EventLoginSuccess SecurityEventType = "login_success"
	// EventSecretMismatch is logged when a secret-protected endpoint is called
	// with a missing or wrong shared secret.
	EventSecretMismatch SecurityEventType = "secret_mismatch"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	UserID    int64             `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger
// namespace, "security_audit", for easy filtering.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogLoginFailure records a rejected login. The email is recorded so
// credential stuffing against one account is visible; the password never is.
func (a *SecurityAuditor) LogLoginFailure(email, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventLoginFailure,
		ClientIP:  clientIP,
		Details:   map[string]string{"email": email},
		Severity:  "warning",
	}

	// Ignoring error as marshaling known types should never fail
	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Login failed",
		zap.String("event_json", string(eventJSON)),
		zap.String("email", email),
		zap.String("client_ip", clientIP),
		zap.String("severity", "warning"),
	)
}

// LogLoginSuccess records an issued session.
func (a *SecurityAuditor) LogLoginSuccess(userID int64, clientIP string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventLoginSuccess,
		UserID:    userID,
		ClientIP:  clientIP,
		Severity:  "info",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Info("Login succeeded",
		zap.String("event_json", string(eventJSON)),
		zap.Int64("user_id", userID),
		zap.String("client_ip", clientIP),
		zap.String("severity", "info"),
	)
}

// LogSecretMismatch records a rejected shared-secret check.
// This is logged at ERROR level since the secret guards crawl control and
// user registration.
func (a *SecurityAuditor) LogSecretMismatch(method, path, clientIP string, provided bool) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventSecretMismatch,
		ClientIP:  clientIP,
		Details: map[string]any{
			"method":   method,
			"path":     path,
			"provided": provided,
		},
		Severity: "critical",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Error("Shared secret rejected",
		zap.String("event_json", string(eventJSON)),
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("provided", provided),
		zap.String("client_ip", clientIP),
		zap.String("severity", "critical"),
	)
}
