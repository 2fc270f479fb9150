package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/services"
)

type HabitHandler struct {
	svc   *services.HabitService
	today Clock
}

func NewHabitHandler(svc *services.HabitService, today Clock) *HabitHandler {
	return &HabitHandler{
		svc:   svc,
		today: today,
	}
}

// upsertHabitRequest is a partial patch: omitted keys keep their stored value,
// brushing_time null clears it.
type upsertHabitRequest struct {
	Date         string  `json:"date"`
	Brushed      *bool   `json:"brushed"`
	Flossed      *bool   `json:"flossed"`
	BrushingTime flexInt `json:"brushing_time" swaggertype:"integer"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.GET("/today", h.Today)
		habits.POST("/today", h.Upsert)
		habits.GET("/history", h.History)
		habits.GET("/streak", h.Streak)
		habits.DELETE("", h.Clear)
	}
}

// Today godoc
// @Summary  Today's habit record, defaults when nothing was logged
// @Tags     habits
// @Produce  json
// @Success  200 {object} domain.HabitDay
// @Security BearerAuth
// @Router   /habits/today [get]
func (h *HabitHandler) Today(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	day, err := h.svc.Today(c.Request.Context(), userID, h.today())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// Upsert godoc
// @Summary  Merge a patch into one day of the habit log
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    request body upsertHabitRequest true "Patch"
// @Success  200 {object} domain.HabitDay
// @Failure  400 {object} map[string]string
// @Security BearerAuth
// @Router   /habits/today [post]
func (h *HabitHandler) Upsert(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req upsertHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var date calendar.Date
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := calendar.Parse(strings.TrimSpace(req.Date))
		if err != nil {
			handleError(c, err)
			return
		}
		date = parsed
	}

	day, err := h.svc.Upsert(c.Request.Context(), services.UpsertHabitDayInput{
		UserID: userID,
		Date:   date,
		Patch: domain.HabitDayPatch{
			Brushed:           req.Brushed,
			Flossed:           req.Flossed,
			BrushingTime:      req.BrushingTime.ptr(),
			ClearBrushingTime: req.BrushingTime.cleared(),
		},
	}, h.today())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// History godoc
// @Summary  Most recent logged days, newest first
// @Tags     habits
// @Produce  json
// @Param    days query int false "Number of records, default 7"
// @Security BearerAuth
// @Router   /habits/history [get]
func (h *HabitHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	days, err := queryInt(c.Query("days"), services.DefaultHistoryDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	history, err := h.svc.History(c.Request.Context(), userID, h.today(), days)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": nonNil(history)})
}

// Streak godoc
// @Summary  Streaks, 30-day consistency and average brushing time
// @Tags     habits
// @Produce  json
// @Success  200 {object} domain.StreakSnapshot
// @Security BearerAuth
// @Router   /habits/streak [get]
func (h *HabitHandler) Streak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	snapshot, err := h.svc.Streak(c.Request.Context(), userID, h.today())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Clear godoc
// @Summary  Delete the caller's whole habit log
// @Tags     habits
// @Produce  json
// @Success  200 {object} clearResponse
// @Security BearerAuth
// @Router   /habits [delete]
func (h *HabitHandler) Clear(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	n, err := h.svc.Clear(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, clearResponse{
		Message:      "habit log cleared",
		DeletedCount: n,
	})
}
