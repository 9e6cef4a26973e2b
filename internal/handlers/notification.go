package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/beacon-dev/beacon/db"
	"github.com/beacon-dev/beacon/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// SubscribeNotifications registers an email address for status updates.
func SubscribeNotifications(ctx *gin.Context) {
	var req SubscribeRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.EmailSubscriber

	err := db.DB.Where("email = ?", email).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusOK, gin.H{
			"message":      "You are already subscribed to status updates",
			"isSubscribed": true,
		})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	subscriber := models.EmailSubscriber{
		Email:      email,
		IsVerified: true,
	}

	if err := db.DB.Create(&subscriber).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Successfully subscribed to status updates"})
}
