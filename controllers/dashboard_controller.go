package controllers

import (
	"chainboard/services"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the derived option-chain metrics
type DashboardController struct {
	poller *services.ChainPoller
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(poller *services.ChainPoller) *DashboardController {
	return &DashboardController{
		poller: poller,
	}
}

// chartSeries is the grouped bar chart data: call and put open interest
// per strike in the window.
type chartSeries struct {
	Strikes          []float64 `json:"strikes"`
	CallOpenInterest []int64   `json:"call_open_interest"`
	PutOpenInterest  []int64   `json:"put_open_interest"`
}

// HandleGetDashboard returns the latest cycle's metrics
// GET /api/v1/dashboard
func (dc *DashboardController) HandleGetDashboard(c *gin.Context) {
	metrics := dc.poller.Latest()
	if metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No option chain data yet, trigger a refresh or wait for the next poll",
		})
		return
	}

	chart := chartSeries{
		Strikes:          make([]float64, len(metrics.Window)),
		CallOpenInterest: make([]int64, len(metrics.Window)),
		PutOpenInterest:  make([]int64, len(metrics.Window)),
	}
	for i, row := range metrics.Window {
		chart.Strikes[i] = row.StrikePrice
		chart.CallOpenInterest[i] = row.CallOpenInterest
		chart.PutOpenInterest[i] = row.PutOpenInterest
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":     metrics.Symbol,
		"fetched_at": metrics.FetchedAt,
		"metrics": gin.H{
			"index_value":    fmt.Sprintf("%.2f", metrics.UnderlyingValue),
			"atm_strike":     fmt.Sprintf("%.2f", metrics.ATMStrike),
			"put_call_ratio": fmt.Sprintf("%.2f", metrics.PutCallRatio),
		},
		"chart": chart,
		"table": metrics.Window,
	})
}

// HandleRefresh runs one poll cycle immediately
// POST /api/v1/dashboard/refresh
func (dc *DashboardController) HandleRefresh(c *gin.Context) {
	metrics, err := dc.poller.RunCycle(c.Request.Context(), "manual")
	if err != nil {
		if errors.Is(err, services.ErrCycleInFlight) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A refresh is already in progress",
			})
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to refresh option chain data",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Option chain data refreshed",
		"metrics": metrics,
	})
}

// intervalRequest is the refresh-interval update payload
type intervalRequest struct {
	RefreshMinutes int `json:"refresh_minutes" binding:"required,min=1,max=60"`
}

// HandleGetInterval returns the current refresh interval
// GET /api/v1/dashboard/interval
func (dc *DashboardController) HandleGetInterval(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"refresh_minutes": int(dc.poller.Interval().Minutes()),
	})
}

// HandleSetInterval updates the refresh interval
// PUT /api/v1/dashboard/interval
func (dc *DashboardController) HandleSetInterval(c *gin.Context) {
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := dc.poller.SetInterval(req.RefreshMinutes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Refresh interval updated",
		"refresh_minutes": req.RefreshMinutes,
	})
}
