package status

import (
	"log"
	"time"

	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recentIncidentWindow bounds how far back resolved incidents appear in the
// public snapshot. Ongoing and Scheduled incidents are always included.
const recentIncidentWindow = 24 * time.Hour

// RecomputeService re-derives a service's effective status from its incidents
// inside the caller's transaction. The service row is locked for the duration
// so concurrent mutations cannot interleave into an inconsistent status. A
// real transition is persisted together with a StatusChange history row.
// Returns the old and new effective status.
func RecomputeService(tx *gorm.DB, serviceID uint) (string, string, error) {
	var service models.Service

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&service, serviceID).Error; err != nil {
		return "", "", err
	}

	var incidents []models.Incident

	if err := tx.Where("service_id = ? AND status = ?", serviceID, types.IncidentOngoing).
		Find(&incidents).Error; err != nil {
		return "", "", err
	}

	oldStatus := service.EffectiveStatus
	newStatus := EffectiveStatus(service.ReportedStatus, incidents)

	if newStatus == oldStatus {
		return oldStatus, newStatus, nil
	}

	if err := tx.Model(&service).Update("effective_status", newStatus).Error; err != nil {
		return "", "", err
	}

	change := models.StatusChange{
		ServiceID:  serviceID,
		FromStatus: oldStatus,
		ToStatus:   newStatus,
		ChangedAt:  time.Now().UTC(),
	}

	if err := tx.Create(&change).Error; err != nil {
		return "", "", err
	}

	return oldStatus, newStatus, nil
}

// RecomputeAll re-derives every service's effective status straight from
// store state. Aggregation is pure, so this is the whole recovery story after
// a crash between a store commit and its notification.
func RecomputeAll(db *gorm.DB) error {
	var serviceIDs []uint

	if err := db.Model(&models.Service{}).Pluck("id", &serviceIDs).Error; err != nil {
		return err
	}

	for _, id := range serviceIDs {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, _, err := RecomputeService(tx, id)
			return err
		})

		if err != nil {
			return err
		}
	}

	if len(serviceIDs) > 0 {
		log.Printf("Recomputed effective status for %d services", len(serviceIDs))
	}

	return nil
}

// PrimeAll baselines the notifier with a fresh snapshot of every
// organization, so the first mutation after boot diffs against current store
// state instead of emitting a bare snapshot.
func PrimeAll(db *gorm.DB) error {
	var orgIDs []uint

	if err := db.Model(&models.Organization{}).Pluck("id", &orgIDs).Error; err != nil {
		return err
	}

	for _, id := range orgIDs {
		snapshot, err := BuildSnapshot(db, id)
		if err != nil {
			return err
		}

		Prime(snapshot)
	}

	return nil
}

// BuildSnapshot assembles the organization's full status view from committed
// store state. Services are ordered by id and each carries its recent
// incidents, non-resolved first, newest first within each group. The result
// is deterministic: rebuilding over unchanged entities yields the same
// snapshot (modulo ComputedAt), which the notifier relies on to de-duplicate.
func BuildSnapshot(tx *gorm.DB, orgID uint) (*types.StatusSnapshot, error) {
	var services []models.Service

	if err := tx.Where("organization_id = ?", orgID).
		Order("id ASC").
		Find(&services).Error; err != nil {
		return nil, err
	}

	snapshot := &types.StatusSnapshot{
		OrganizationID: orgID,
		OverallStatus:  types.StatusOperational,
		Services:       make([]types.ServiceStatus, 0, len(services)),
		ComputedAt:     time.Now().UTC(),
	}

	if len(services) == 0 {
		return snapshot, nil
	}

	serviceIDs := make([]uint, 0, len(services))
	for _, service := range services {
		serviceIDs = append(serviceIDs, service.ID)
	}

	cutoff := time.Now().UTC().Add(-recentIncidentWindow)

	var incidents []models.Incident

	if err := tx.Where("service_id IN ? AND (status <> ? OR created_at > ?)",
		serviceIDs, types.IncidentResolved, cutoff).
		Order("status = 'Resolved', created_at DESC").
		Find(&incidents).Error; err != nil {
		return nil, err
	}

	byService := make(map[uint][]types.IncidentSummary)

	for _, incident := range incidents {
		byService[incident.ServiceID] = append(byService[incident.ServiceID], types.IncidentSummary{
			ID:          incident.ID,
			Title:       incident.Title,
			Description: incident.Description,
			Severity:    incident.Severity,
			Status:      incident.Status,
			CreatedAt:   incident.CreatedAt,
			ResolvedAt:  incident.ResolvedAt,
		})

		if incident.CreatedAt.After(cutoff) {
			snapshot.IncidentCount.Total++
		}
		if incident.Status == types.IncidentOngoing {
			snapshot.IncidentCount.Ongoing++
		}
	}

	statuses := make([]string, 0, len(services))

	for _, service := range services {
		statuses = append(statuses, service.EffectiveStatus)
		snapshot.Services = append(snapshot.Services, types.ServiceStatus{
			ID:              service.ID,
			Name:            service.Name,
			ReportedStatus:  service.ReportedStatus,
			EffectiveStatus: service.EffectiveStatus,
			Incidents:       byService[service.ID],
		})
	}

	snapshot.OverallStatus = OverallStatus(statuses)

	return snapshot, nil
}
