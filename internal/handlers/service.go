package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/status"
	"github.com/beacon-dev/beacon/internal/types"
	"github.com/beacon-dev/beacon/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateServiceRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status"`
}

type UpdateServiceRequest struct {
	Name   string `json:"name" binding:"required"`
	Status string `json:"status" binding:"required"`
}

type ServiceResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	ReportedStatus  string    `json:"reported_status"`
	EffectiveStatus string    `json:"effective_status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type StatusPoint struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedAt  time.Time `json:"changed_at"`
}

type ServiceHistoryResponse struct {
	ServiceID        uint          `json:"service_id"`
	ServiceName      string        `json:"service_name"`
	CurrentStatus    string        `json:"current_status"`
	UptimePercentage float64       `json:"uptime_percentage"`
	Points           []StatusPoint `json:"points"`
}

const uptimeWindow = 24 * time.Hour

func serviceResponse(service models.Service) ServiceResponse {
	return ServiceResponse{
		ID:              service.ID,
		Name:            service.Name,
		ReportedStatus:  service.ReportedStatus,
		EffectiveStatus: service.EffectiveStatus,
		CreatedAt:       service.CreatedAt,
		UpdatedAt:       service.UpdatedAt,
	}
}

func CreateService(ctx *gin.Context) {
	var req CreateServiceRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status == "" {
		req.Status = types.StatusOperational
	}

	if !types.ValidServiceStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service status"})
		return
	}

	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	service := models.Service{
		OrganizationID:  orgID,
		Name:            req.Name,
		ReportedStatus:  req.Status,
		EffectiveStatus: req.Status,
	}

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		return tx.Create(&service).Error
	})

	if err != nil {
		respondError(ctx, err, "Failed to create service")
		return
	}

	ctx.JSON(http.StatusCreated, serviceResponse(service))
}

func ListServices(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var services []models.Service

	if err := db.DB.Where("organization_id = ?", orgID).Order("id ASC").Find(&services).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve services"})
		return
	}

	response := make([]ServiceResponse, 0, len(services))
	for _, service := range services {
		response = append(response, serviceResponse(service))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetService(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	serviceID, err := strconv.ParseUint(ctx.Param("service_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Service ID"})
		return
	}

	var service models.Service

	if err := db.DB.Where("id = ? AND organization_id = ?", serviceID, orgID).First(&service).Error; err != nil {
		respondError(ctx, err, "Failed to retrieve service")
		return
	}

	ctx.JSON(http.StatusOK, serviceResponse(service))
}

func UpdateService(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	serviceID, err := strconv.ParseUint(ctx.Param("service_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Service ID"})
		return
	}

	var req UpdateServiceRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !types.ValidServiceStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service status"})
		return
	}

	var service models.Service

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND organization_id = ?", serviceID, orgID).
			First(&service).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":            req.Name,
			"reported_status": req.Status,
		}

		if err := tx.Model(&service).Updates(updates).Error; err != nil {
			return err
		}

		// Re-derive effective status: the operator's reported status is only
		// one input, ongoing incidents may still override it.
		_, _, err := status.RecomputeService(tx, service.ID)
		if err != nil {
			return err
		}

		return tx.First(&service, service.ID).Error
	})

	if err != nil {
		respondError(ctx, err, "Failed to update service")
		return
	}

	ctx.JSON(http.StatusOK, serviceResponse(service))
}

func DeleteService(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	serviceID, err := strconv.ParseUint(ctx.Param("service_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Service ID"})
		return
	}

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		var service models.Service

		if err := tx.Where("id = ? AND organization_id = ?", serviceID, orgID).
			First(&service).Error; err != nil {
			return err
		}

		// Incidents and status history cascade with the service row.
		return tx.Delete(&service).Error
	})

	if err != nil {
		respondError(ctx, err, "Failed to delete service")
		return
	}

	log.Printf("Service %d deleted from organization %d", serviceID, orgID)
	ctx.Status(http.StatusNoContent)
}

// GetServiceHistory returns the ordered status transitions of a service plus
// a server-computed uptime percentage, so every client renders the same math.
func GetServiceHistory(ctx *gin.Context) {
	serviceID, err := strconv.ParseUint(ctx.Param("service_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Service ID"})
		return
	}

	var service models.Service

	if err := db.DB.First(&service, serviceID).Error; err != nil {
		respondError(ctx, err, "Failed to retrieve service")
		return
	}

	var changes []models.StatusChange

	if err := db.DB.Where("service_id = ?", serviceID).
		Order("changed_at ASC").
		Find(&changes).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}

	now := time.Now().UTC()
	initial := service.EffectiveStatus
	if len(changes) > 0 {
		initial = changes[0].FromStatus
	}

	points := make([]StatusPoint, 0, len(changes))
	for _, change := range changes {
		points = append(points, StatusPoint{
			FromStatus: change.FromStatus,
			ToStatus:   change.ToStatus,
			ChangedAt:  change.ChangedAt,
		})
	}

	ctx.JSON(http.StatusOK, ServiceHistoryResponse{
		ServiceID:        service.ID,
		ServiceName:      service.Name,
		CurrentStatus:    service.EffectiveStatus,
		UptimePercentage: uptimePercentage(initial, changes, now.Add(-uptimeWindow), now),
		Points:           points,
	})
}

// uptimePercentage computes the share of the window a service spent out of
// Outage. changes must be ordered by ChangedAt ascending and may include
// entries before the window start; those only establish the starting status.
func uptimePercentage(initial string, changes []models.StatusChange, from, to time.Time) float64 {
	if !to.After(from) {
		return 100.0
	}

	current := initial
	cursor := from
	var down time.Duration

	for _, change := range changes {
		if !change.ChangedAt.After(from) {
			current = change.ToStatus
			continue
		}

		if change.ChangedAt.After(to) {
			break
		}

		if current == types.StatusOutage {
			down += change.ChangedAt.Sub(cursor)
		}

		current = change.ToStatus
		cursor = change.ChangedAt
	}

	if current == types.StatusOutage {
		down += to.Sub(cursor)
	}

	window := to.Sub(from)
	return 100.0 * float64(window-down) / float64(window)
}
