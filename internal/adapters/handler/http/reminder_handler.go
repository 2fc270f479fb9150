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

type ReminderHandler struct {
	svc    *services.ReminderService
	agenda *services.AgendaService
	today  Clock
}

func NewReminderHandler(svc *services.ReminderService, agenda *services.AgendaService, today Clock) *ReminderHandler {
	return &ReminderHandler{
		svc:    svc,
		agenda: agenda,
		today:  today,
	}
}

type createReminderRequest struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Date          string         `json:"date"`
	Time          optionalString `json:"time" swaggertype:"string"`
	FrequencyDays flexInt        `json:"frequency_days" swaggertype:"integer"`
	PillCount     flexInt        `json:"pill_count" swaggertype:"integer"`
}

type updateReminderRequest struct {
	Type          *string        `json:"type"`
	Title         *string        `json:"title"`
	Description   *string        `json:"description"`
	Date          optionalString `json:"date" swaggertype:"string"`
	Time          optionalString `json:"time" swaggertype:"string"`
	Completed     *bool          `json:"completed"`
	FrequencyDays flexInt        `json:"frequency_days" swaggertype:"integer"`
	PillCount     flexInt        `json:"pill_count" swaggertype:"integer"`
}

// createReminderResponse carries reminder for a single occurrence and reminders for a batch.
type createReminderResponse struct {
	Message   string             `json:"message"`
	Count     int                `json:"count"`
	Reminder  *domain.Reminder   `json:"reminder,omitempty"`
	Reminders []*domain.Reminder `json:"reminders,omitempty"`
}

type clearResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

func (h *ReminderHandler) RegisterRoutes(router *gin.RouterGroup) {
	reminders := router.Group("/reminders")
	{
		reminders.POST("", h.Create)
		reminders.GET("", h.List)
		reminders.DELETE("", h.Clear)
		reminders.POST("/clear", h.Clear)
		reminders.GET("/upcoming", h.Upcoming)
		reminders.GET("/on/:date", h.OnDate)
		reminders.GET("/:id", h.Get)
		reminders.PUT("/:id", h.Update)
		reminders.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @Summary      Create a reminder
// @Description  Medication reminders with pill_count > 1 expand into one reminder per dose.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        request body createReminderRequest true "Reminder"
// @Success      201 {object} createReminderResponse
// @Failure      400 {object} map[string]string
// @Security     BearerAuth
// @Router       /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req createReminderRequest
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

	result, err := h.svc.Create(c.Request.Context(), services.CreateReminderInput{
		UserID:        userID,
		Type:          strings.TrimSpace(req.Type),
		Title:         req.Title,
		Description:   req.Description,
		Date:          date,
		Time:          req.Time.get(),
		FrequencyDays: req.FrequencyDays.ptr(),
		PillCount:     req.PillCount.ptr(),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	resp := createReminderResponse{
		Message: "reminder created",
		Count:   len(result.Reminders),
	}
	if result.Batch() {
		resp.Message = "recurring reminders created"
		resp.Reminders = result.Reminders
	} else {
		resp.Reminder = result.First()
	}

	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary  List reminders
// @Tags     reminders
// @Produce  json
// @Param    status query string false "active or completed"
// @Security BearerAuth
// @Router   /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var (
		list []*domain.Reminder
		err  error
	)
	switch c.Query("status") {
	case "":
		list, err = h.svc.List(c.Request.Context(), userID)
	case "active":
		list, err = h.agenda.Active(c.Request.Context(), userID)
	case "completed":
		list, err = h.agenda.Completed(c.Request.Context(), userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or completed"})
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": nonNil(list)})
}

// Upcoming godoc
// @Summary  Incomplete reminders from today through today+days
// @Tags     reminders
// @Produce  json
// @Param    days query int false "Window length, default 7"
// @Security BearerAuth
// @Router   /reminders/upcoming [get]
func (h *ReminderHandler) Upcoming(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	days, err := queryInt(c.Query("days"), services.DefaultUpcomingDays)
	if err != nil {
		badRequest(c, err)
		return
	}

	list, err := h.agenda.Upcoming(c.Request.Context(), userID, h.today(), days)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": nonNil(list)})
}

// OnDate godoc
// @Summary  Every reminder on one day, completed included
// @Tags     reminders
// @Produce  json
// @Param    date path string true "YYYY-MM-DD"
// @Security BearerAuth
// @Router   /reminders/on/{date} [get]
func (h *ReminderHandler) OnDate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	date, err := calendar.Parse(c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}

	list, err := h.agenda.OnDate(c.Request.Context(), userID, date)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "reminders": nonNil(list)})
}

// Get godoc
// @Summary  Fetch one reminder
// @Tags     reminders
// @Produce  json
// @Param    id path string true "Reminder ID"
// @Failure  404 {object} map[string]string
// @Security BearerAuth
// @Router   /reminders/{id} [get]
func (h *ReminderHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	reminder, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

// Update godoc
// @Summary      Patch one occurrence
// @Description  Other occurrences created from the same rule are not touched.
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        id path string true "Reminder ID"
// @Param        request body updateReminderRequest true "Fields to change"
// @Security     BearerAuth
// @Router       /reminders/{id} [put]
func (h *ReminderHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	var req updateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := domain.ReminderPatch{
		Type:               req.Type,
		Title:              req.Title,
		Description:        req.Description,
		Time:               req.Time.get(),
		ClearTime:          req.Time.blank(),
		Completed:          req.Completed,
		FrequencyDays:      req.FrequencyDays.ptr(),
		ClearFrequencyDays: req.FrequencyDays.cleared(),
		PillCount:          req.PillCount.ptr(),
		ClearPillCount:     req.PillCount.cleared(),
	}

	if req.Date.present {
		var date calendar.Date
		if v := req.Date.get(); v != nil {
			parsed, err := calendar.Parse(*v)
			if err != nil {
				handleError(c, err)
				return
			}
			date = parsed
		}
		patch.Date = &date
	}

	reminder, err := h.svc.Update(c.Request.Context(), services.UpdateReminderInput{
		ID:     c.Param("id"),
		UserID: userID,
		Patch:  patch,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

// Delete godoc
// @Summary  Delete one occurrence
// @Tags     reminders
// @Param    id path string true "Reminder ID"
// @Security BearerAuth
// @Router   /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reminder deleted"})
}

// Clear godoc
// @Summary  Delete every reminder of the caller
// @Tags     reminders
// @Produce  json
// @Success  200 {object} clearResponse
// @Security BearerAuth
// @Router   /reminders [delete]
// @Router   /reminders/clear [post]
func (h *ReminderHandler) Clear(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return
	}

	n, err := h.svc.ClearAll(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, clearResponse{
		Message:      "reminders cleared",
		DeletedCount: n,
	})
}

// nonNil keeps empty results serialized as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
