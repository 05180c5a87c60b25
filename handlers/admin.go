package handlers

import (
	"net/http"
	"strconv"

	conversationRepo "github.com/HummdG/taza-ticket-clean/database/repository/conversation"
	"github.com/HummdG/taza-ticket-clean/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 10

// AdminHandler exposes conversation inspection and removal. All routes sit
// behind the admin key middleware.
type AdminHandler struct {
	Repo conversationRepo.ConversationRepository
}

func NewAdminHandler(repo conversationRepo.ConversationRepository) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

// GetConversationHandler returns the current record for a user.
func (ah *AdminHandler) GetConversationHandler(c *gin.Context) {
	userID := c.Param("userId")

	conv, err := ah.Repo.Get(c.Request.Context(), userID)
	if err != nil {
		zap.L().Error("failed to fetch conversation", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch conversation", "")
		return
	}
	if conv == nil {
		utils.JSONError(c, http.StatusNotFound, "Conversation not found", userID)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// GetHistoryHandler returns versioned snapshots, newest first.
func (ah *AdminHandler) GetHistoryHandler(c *gin.Context) {
	userID := c.Param("userId")
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid limit", raw)
			return
		}
		limit = parsed
	}

	history, err := ah.Repo.History(c.Request.Context(), userID, limit)
	if err != nil {
		zap.L().Error("failed to fetch history", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to fetch history", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "versions": history})
}

// PurgeConversationHandler removes all stored state for a user.
func (ah *AdminHandler) PurgeConversationHandler(c *gin.Context) {
	userID := c.Param("userId")

	if err := ah.Repo.Purge(c.Request.Context(), userID); err != nil {
		zap.L().Error("failed to purge conversation", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to purge conversation", "")
		return
	}
	zap.L().Info("purged conversation", zap.String("userId", userID))
	c.Status(http.StatusNoContent)
}
