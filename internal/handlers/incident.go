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

type CreateIncidentRequest struct {
	ServiceID   uint   `json:"service_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
}

type UpdateIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
}

type IncidentResponse struct {
	ID          uint       `json:"id"`
	ServiceID   uint       `json:"service_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	StartedAt   *time.Time `json:"started_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func incidentResponse(incident models.Incident) IncidentResponse {
	return IncidentResponse{
		ID:          incident.ID,
		ServiceID:   incident.ServiceID,
		Title:       incident.Title,
		Description: incident.Description,
		Severity:    incident.Severity,
		Status:      incident.Status,
		StartedAt:   incident.StartedAt,
		ResolvedAt:  incident.ResolvedAt,
		CreatedAt:   incident.CreatedAt,
	}
}

func CreateIncident(ctx *gin.Context) {
	var req CreateIncidentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Severity == "" {
		req.Severity = types.SeverityOutage
	}
	if req.Status == "" {
		req.Status = types.IncidentOngoing
	}

	if !types.ValidSeverity(req.Severity) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident severity"})
		return
	}

	if req.Status != types.IncidentOngoing && req.Status != types.IncidentScheduled {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "New incidents must be Ongoing or Scheduled"})
		return
	}

	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	now := time.Now().UTC()
	incident := models.Incident{
		ServiceID:   req.ServiceID,
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Status:      req.Status,
	}

	if req.Status == types.IncidentOngoing {
		incident.StartedAt = &now
	}

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		var service models.Service

		if err := tx.Where("id = ? AND organization_id = ?", req.ServiceID, orgID).
			First(&service).Error; err != nil {
			return err
		}

		if err := tx.Create(&incident).Error; err != nil {
			return err
		}

		_, _, err := status.RecomputeService(tx, req.ServiceID)
		return err
	})

	if err != nil {
		respondError(ctx, err, "Failed to create incident")
		return
	}

	ctx.JSON(http.StatusCreated, incidentResponse(incident))
}

func ListIncidents(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var incidents []models.Incident

	if err := db.DB.Joins("JOIN services ON services.id = incidents.service_id").
		Where("services.organization_id = ?", orgID).
		Order("incidents.created_at DESC").
		Limit(50).
		Find(&incidents).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	response := make([]IncidentResponse, 0, len(incidents))
	for _, incident := range incidents {
		response = append(response, incidentResponse(incident))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetIncident(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	incidentID, err := strconv.ParseUint(ctx.Param("incident_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Incident ID"})
		return
	}

	var incident models.Incident

	if err := db.DB.Joins("JOIN services ON services.id = incidents.service_id").
		Where("incidents.id = ? AND services.organization_id = ?", incidentID, orgID).
		First(&incident).Error; err != nil {
		respondError(ctx, err, "Failed to retrieve incident")
		return
	}

	ctx.JSON(http.StatusOK, incidentResponse(incident))
}

func UpdateIncident(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	incidentID, err := strconv.ParseUint(ctx.Param("incident_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Incident ID"})
		return
	}

	var req UpdateIncidentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Severity != "" && !types.ValidSeverity(req.Severity) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident severity"})
		return
	}

	if req.Status != "" && !types.ValidIncidentStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident status"})
		return
	}

	var incident models.Incident

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "incidents"}}).
			Joins("JOIN services ON services.id = incidents.service_id").
			Where("incidents.id = ? AND services.organization_id = ?", incidentID, orgID).
			First(&incident).Error; err != nil {
			return err
		}

		now := time.Now().UTC()

		if req.Status != "" {
			if req.Status == types.IncidentResolved && incident.Status == types.IncidentResolved {
				return types.NewAppError(types.KindConflict, "incident.update",
					"Incident is already resolved", nil)
			}

			switch req.Status {
			case types.IncidentResolved:
				incident.ResolvedAt = &now
			case types.IncidentOngoing:
				// Reopened or promoted from Scheduled.
				incident.ResolvedAt = nil
				if incident.StartedAt == nil {
					incident.StartedAt = &now
				}
			case types.IncidentScheduled:
				incident.ResolvedAt = nil
			}

			incident.Status = req.Status
		}

		if req.Title != "" {
			incident.Title = req.Title
		}
		if req.Description != "" {
			incident.Description = req.Description
		}
		if req.Severity != "" {
			incident.Severity = req.Severity
		}

		if err := tx.Save(&incident).Error; err != nil {
			return err
		}

		_, _, err := status.RecomputeService(tx, incident.ServiceID)
		return err
	})

	if err != nil {
		respondError(ctx, err, "Failed to update incident")
		return
	}

	ctx.JSON(http.StatusOK, incidentResponse(incident))
}

func DeleteIncident(ctx *gin.Context) {
	orgID, err := utils.GetCurrentOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	operatorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	incidentID, err := strconv.ParseUint(ctx.Param("incident_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Incident ID"})
		return
	}

	confirmed := ctx.Query("confirm") == "true"

	err = applyMutation(orgID, func(tx *gorm.DB) error {
		var incident models.Incident

		if err := tx.Joins("JOIN services ON services.id = incidents.service_id").
			Where("incidents.id = ? AND services.organization_id = ?", incidentID, orgID).
			First(&incident).Error; err != nil {
			return err
		}

		if incident.Status == types.IncidentOngoing && !confirmed {
			return types.NewAppError(types.KindConflict, "incident.delete",
				"Deleting an ongoing incident requires confirm=true", nil)
		}

		if incident.Status == types.IncidentOngoing {
			log.Printf("Destructive delete of ongoing incident %d (service %d) confirmed by user %d",
				incident.ID, incident.ServiceID, operatorID)
		}

		if err := tx.Delete(&incident).Error; err != nil {
			return err
		}

		_, _, err := status.RecomputeService(tx, incident.ServiceID)
		return err
	})

	if err != nil {
		respondError(ctx, err, "Failed to delete incident")
		return
	}

	ctx.Status(http.StatusNoContent)
}
