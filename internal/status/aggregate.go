package status

import (
	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/types"
)

var statusRank = map[string]int{
	types.StatusOperational: 0,
	types.StatusDegraded:    1,
	types.StatusOutage:      2,
}

// Worse returns the worse of two service statuses under
// Operational < Degraded < Outage.
func Worse(a, b string) string {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// EffectiveStatus derives a service's published status from its operator-set
// reported status and its incidents, worst-wins:
//
//  1. Any Ongoing outage-class incident forces Outage.
//  2. Otherwise any Ongoing degraded-class incident, or a reported status of
//     Degraded, forces Degraded.
//  3. Otherwise the reported status stands.
//
// Scheduled incidents never downgrade a service and Resolved incidents never
// affect it. Incidents with an unknown severity count as outage-class.
func EffectiveStatus(reported string, incidents []models.Incident) string {
	effective := reported

	for _, incident := range incidents {
		if incident.Status != types.IncidentOngoing {
			continue
		}

		switch incident.Severity {
		case types.SeverityDegraded:
			effective = Worse(effective, types.StatusDegraded)
		default:
			effective = Worse(effective, types.StatusOutage)
		}
	}

	return effective
}

// OverallStatus folds effective statuses worst-wins. An organization with no
// services is Operational by convention.
func OverallStatus(statuses []string) string {
	overall := types.StatusOperational

	for _, s := range statuses {
		overall = Worse(overall, s)
	}

	return overall
}
