package types

import "time"

// StatusSnapshot is the full, self-consistent status view of one organization.
// It is both the public projection payload and the body of status_update
// events, so subscribers can always replace their local state wholesale.
type StatusSnapshot struct {
	OrganizationID uint            `json:"organization_id"`
	OverallStatus  string          `json:"overall_status"`
	Services       []ServiceStatus `json:"services"`
	IncidentCount  IncidentCount   `json:"incident_count"`
	ComputedAt     time.Time       `json:"computed_at"`
}

type ServiceStatus struct {
	ID              uint              `json:"id"`
	Name            string            `json:"name"`
	ReportedStatus  string            `json:"reported_status"`
	EffectiveStatus string            `json:"effective_status"`
	Incidents       []IncidentSummary `json:"incidents"`
}

type IncidentSummary struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

type IncidentCount struct {
	Total   int `json:"total"`
	Ongoing int `json:"ongoing"`
}

// Same reports whether two snapshots describe identical status state.
// ComputedAt is ignored: rebuilding over unchanged entities must compare
// equal so the notifier can de-duplicate.
func (s *StatusSnapshot) Same(other *StatusSnapshot) bool {
	if s == nil || other == nil {
		return s == other
	}

	if s.OrganizationID != other.OrganizationID ||
		s.OverallStatus != other.OverallStatus ||
		s.IncidentCount != other.IncidentCount ||
		len(s.Services) != len(other.Services) {
		return false
	}

	for i := range s.Services {
		a, b := s.Services[i], other.Services[i]

		if a.ID != b.ID || a.Name != b.Name ||
			a.ReportedStatus != b.ReportedStatus ||
			a.EffectiveStatus != b.EffectiveStatus ||
			len(a.Incidents) != len(b.Incidents) {
			return false
		}

		for j := range a.Incidents {
			x, y := a.Incidents[j], b.Incidents[j]

			if x.ID != y.ID || x.Status != y.Status || x.Severity != y.Severity ||
				x.Title != y.Title || x.Description != y.Description {
				return false
			}
		}
	}

	return true
}
