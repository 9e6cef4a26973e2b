package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/status"
	"github.com/beacon-dev/beacon/internal/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	storeRetryAttempts = 3
	storeRetryDelay    = 100 * time.Millisecond
)

// applyMutation runs fn inside a store transaction, then publishes the
// organization's new snapshot to realtime subscribers before the caller
// writes its HTTP response. The snapshot is rebuilt from committed state
// inside the notifier's publish section, so two mutations of the same
// organization that commit concurrently can never broadcast a
// higher-sequence event whose snapshot misses the other's committed change.
// Transient store failures are retried before being surfaced.
func applyMutation(orgID uint, fn func(tx *gorm.DB) error) error {
	err := db.WithRetry(storeRetryAttempts, storeRetryDelay, func() error {
		return db.DB.Transaction(fn)
	})

	if err != nil {
		if db.IsTransient(err) {
			return types.NewAppError(types.KindTransientStore, "store.write",
				"Store temporarily unavailable", err)
		}
		return err
	}

	// The committed write stands even if publishing fails: the notifier has
	// dropped its baseline, so the next publish re-reads from scratch, and
	// subscribers recover through reconnect plus snapshot re-fetch.
	if _, err := status.PublishCommitted(orgID, func() (*types.StatusSnapshot, error) {
		return status.BuildSnapshot(db.DB, orgID)
	}); err != nil {
		log.Printf("Failed to publish snapshot for organization %d: %v", orgID, err)
	}

	return nil
}

// respondError translates store and validation failures into HTTP responses.
func respondError(ctx *gin.Context, err error, fallback string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if db.IsUniqueViolation(err) {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
		return
	}

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case types.KindNotFound:
			ctx.JSON(http.StatusNotFound, gin.H{"error": appErr.Msg})
		case types.KindConflict:
			ctx.JSON(http.StatusConflict, gin.H{"error": appErr.Msg})
		case types.KindValidation:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": appErr.Msg})
		case types.KindTransientStore:
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": appErr.Msg})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": appErr.Msg})
		}
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
