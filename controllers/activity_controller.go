package controllers

import (
	"chainboard/interfaces"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ActivityController handles poll-cycle history endpoints
type ActivityController struct {
	store interfaces.CycleStore
}

// NewActivityController creates a new activity controller
func NewActivityController(store interfaces.CycleStore) *ActivityController {
	return &ActivityController{
		store: store,
	}
}

// HandleListCycles returns recent poll cycles, newest first
// GET /api/v1/activity?limit=50
func (ac *ActivityController) HandleListCycles(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = v
	}

	cycles, err := ac.store.ListRecentCycles(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(cycles),
		"cycles": cycles,
	})
}

// HandleCycleStats returns aggregate stats over stored poll cycles
// GET /api/v1/activity/stats
func (ac *ActivityController) HandleCycleStats(c *gin.Context) {
	stats, err := ac.store.CycleStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
