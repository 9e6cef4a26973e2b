package types

import (
	"os"
	"strings"
)

const ContextUserKey = "user"

// Service statuses, ordered from best to worst.
const (
	StatusOperational = "Operational"
	StatusDegraded    = "Degraded"
	StatusOutage      = "Outage"
)

// Incident lifecycle statuses.
const (
	IncidentOngoing   = "Ongoing"
	IncidentScheduled = "Scheduled"
	IncidentResolved  = "Resolved"
)

// Incident severity classes. Ongoing incidents are outage-class unless
// explicitly created with the lesser "degraded" classification.
const (
	SeverityOutage   = "outage"
	SeverityDegraded = "degraded"
)

func ValidServiceStatus(s string) bool {
	switch s {
	case StatusOperational, StatusDegraded, StatusOutage:
		return true
	}
	return false
}

func ValidIncidentStatus(s string) bool {
	switch s {
	case IncidentOngoing, IncidentScheduled, IncidentResolved:
		return true
	}
	return false
}

func ValidSeverity(s string) bool {
	return s == SeverityOutage || s == SeverityDegraded
}

var (
	// Default allowed origins for development
	defaultOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}

	AllowedOrigins = initAllowedOrigins()
)

func initAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		envOrigins := strings.Split(allowedOrigins, ",")
		for _, origin := range envOrigins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
