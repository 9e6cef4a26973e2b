package handlers

import (
	"net/http"
	"strconv"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/models"
	"github.com/beacon-dev/beacon/internal/status"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// resolveOrgID finds the organization a public request is about: the
// X-Organization-ID header, the organization_id query param, or the sole
// organization for single-tenant deployments.
func resolveOrgID(ctx *gin.Context) (uint, error) {
	raw := ctx.GetHeader("X-Organization-ID")
	if raw == "" {
		raw = ctx.Query("organization_id")
	}

	if raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(id), nil
	}

	var orgs []models.Organization
	if err := db.DB.Limit(2).Find(&orgs).Error; err != nil {
		return 0, err
	}

	if len(orgs) != 1 {
		return 0, gorm.ErrRecordNotFound
	}

	return orgs[0].ID, nil
}

// GetStatus serves the public status projection. It reads committed store
// state directly, so it always reflects the latest mutation.
func GetStatus(ctx *gin.Context) {
	orgID, err := resolveOrgID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Organization could not be determined"})
		return
	}

	var exists int64
	if err := db.DB.Model(&models.Organization{}).Where("id = ?", orgID).Count(&exists).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status"})
		return
	}

	if exists == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	snapshot, err := status.BuildSnapshot(db.DB, orgID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve status"})
		return
	}

	ctx.JSON(http.StatusOK, snapshot)
}
