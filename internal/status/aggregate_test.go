package status

import (
	"testing"

	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/types"
)

func incident(status, severity string) models.Incident {
	return models.Incident{Status: status, Severity: severity}
}

func TestEffectiveStatusOutageIncidentOverridesReported(t *testing.T) {
	incidents := []models.Incident{incident(types.IncidentOngoing, types.SeverityOutage)}

	got := EffectiveStatus(types.StatusOperational, incidents)
	if got != types.StatusOutage {
		t.Fatalf("expected Outage, got %s", got)
	}
}

func TestEffectiveStatusDegradedIncident(t *testing.T) {
	incidents := []models.Incident{incident(types.IncidentOngoing, types.SeverityDegraded)}

	got := EffectiveStatus(types.StatusOperational, incidents)
	if got != types.StatusDegraded {
		t.Fatalf("expected Degraded, got %s", got)
	}
}

func TestEffectiveStatusDegradedIncidentNeverImprovesOutage(t *testing.T) {
	incidents := []models.Incident{incident(types.IncidentOngoing, types.SeverityDegraded)}

	got := EffectiveStatus(types.StatusOutage, incidents)
	if got != types.StatusOutage {
		t.Fatalf("expected reported Outage to stand, got %s", got)
	}
}

func TestEffectiveStatusScheduledAndResolvedIgnored(t *testing.T) {
	incidents := []models.Incident{
		incident(types.IncidentScheduled, types.SeverityOutage),
		incident(types.IncidentResolved, types.SeverityOutage),
	}

	got := EffectiveStatus(types.StatusOperational, incidents)
	if got != types.StatusOperational {
		t.Fatalf("expected Operational, got %s", got)
	}
}

func TestEffectiveStatusUnknownSeverityIsOutageClass(t *testing.T) {
	incidents := []models.Incident{incident(types.IncidentOngoing, "")}

	got := EffectiveStatus(types.StatusOperational, incidents)
	if got != types.StatusOutage {
		t.Fatalf("expected unknown severity to count as outage, got %s", got)
	}
}

func TestEffectiveStatusReportedDegradedWithoutIncidents(t *testing.T) {
	got := EffectiveStatus(types.StatusDegraded, nil)
	if got != types.StatusDegraded {
		t.Fatalf("expected Degraded, got %s", got)
	}
}

func TestEffectiveStatusRevertsToReportedAfterResolve(t *testing.T) {
	incidents := []models.Incident{incident(types.IncidentResolved, types.SeverityOutage)}

	got := EffectiveStatus(types.StatusOperational, incidents)
	if got != types.StatusOperational {
		t.Fatalf("expected revert to reported status, got %s", got)
	}
}

func TestOverallStatusWorstWins(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"empty organization", nil, types.StatusOperational},
		{"all operational", []string{types.StatusOperational, types.StatusOperational}, types.StatusOperational},
		{"one degraded", []string{types.StatusOperational, types.StatusDegraded}, types.StatusDegraded},
		{"one outage", []string{types.StatusOutage, types.StatusOperational}, types.StatusOutage},
		{"outage beats degraded", []string{types.StatusDegraded, types.StatusOutage}, types.StatusOutage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := OverallStatus(tc.statuses); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestWorseIsCommutativeOnEqualRanks(t *testing.T) {
	if got := Worse(types.StatusDegraded, types.StatusDegraded); got != types.StatusDegraded {
		t.Fatalf("expected Degraded, got %s", got)
	}
}
