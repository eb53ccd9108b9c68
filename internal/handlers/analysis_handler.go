package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dnovakovic099/secure-stay-server-sub003/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalysisHandler serves the guest analysis HTTP endpoints
type AnalysisHandler struct {
	service AnalysisServiceInterface
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service AnalysisServiceInterface) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

type generateRequest struct {
	InboxID string `json:"inboxId"`
}

// GetAnalysis handles GET /:reservationId
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	analysis, err := h.service.GetAnalysis(reservationID)
	if err != nil {
		logger.Error("Failed to get analysis",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No analysis found for reservation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": analysis})
}

// GetBulkAnalyses handles GET /bulk?reservationIds=a,b,c
func (h *AnalysisHandler) GetBulkAnalyses(c *gin.Context) {
	param := c.Query("reservationIds")
	if param == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "reservationIds query parameter is required"})
		return
	}

	var reservationIDs []int64
	for _, part := range strings.Split(param, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid reservation ID: " + part})
			return
		}
		reservationIDs = append(reservationIDs, id)
	}
	if len(reservationIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "reservationIds list is empty"})
		return
	}

	analyses, err := h.service.GetAnalyses(reservationIDs)
	if err != nil {
		logger.Error("Failed to get bulk analyses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": analyses})
}

// GenerateAnalysis handles POST /:reservationId/generate and
// POST /:reservationId/regenerate; both always re-fetch and re-run the model
func (h *AnalysisHandler) GenerateAnalysis(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	// The body is optional; an absent or malformed body means no inbox hint
	var req generateRequest
	_ = c.ShouldBindJSON(&req)

	analysis, err := h.service.Analyze(c.Request.Context(), reservationID, req.InboxID)
	if err != nil {
		logger.Error("Analysis generation failed",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate analysis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": analysis})
}

// GetCommunications handles GET /:reservationId/communications
func (h *AnalysisHandler) GetCommunications(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	comms, err := h.service.GetCommunications(reservationID)
	if err != nil {
		logger.Error("Failed to get communications",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": comms, "count": len(comms)})
}

// FetchCommunications handles POST /:reservationId/fetch-communications
func (h *AnalysisHandler) FetchCommunications(c *gin.Context) {
	reservationID, ok := h.reservationID(c)
	if !ok {
		return
	}

	var req generateRequest
	_ = c.ShouldBindJSON(&req)

	counts, err := h.service.FetchCommunications(c.Request.Context(), reservationID, req.InboxID)
	if err != nil {
		logger.Error("Failed to fetch communications",
			zap.Int64("reservation_id", reservationID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch communications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": counts})
}

func (h *AnalysisHandler) reservationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("reservationId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid reservation ID"})
		return 0, false
	}
	return id, true
}
