package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/services"
)

const testUserHeader = "X-Test-User"

var today = calendar.MustParse("2024-03-10")

type testEnv struct {
	router    *gin.Engine
	reminders *repository.InMemoryReminderRepository
	habits    *repository.InMemoryHabitDayRepository
}

// setupRouter wires real services over the in-memory store. Authentication is replaced by a
// header carrying the user id.
func setupRouter() *testEnv {
	gin.SetMode(gin.TestMode)

	reminderRepo := repository.NewInMemoryReminderRepository()
	habitRepo := repository.NewInMemoryHabitDayRepository()
	clock := adapterHTTP.FixedClock(today)

	reminderHandler := adapterHTTP.NewReminderHandler(
		services.NewReminderService(reminderRepo),
		services.NewAgendaService(reminderRepo),
		clock,
	)
	habitHandler := adapterHTTP.NewHabitHandler(services.NewHabitService(habitRepo), clock)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if id := c.GetHeader(testUserHeader); id != "" {
			c.Set(middleware.ContextUserIDKey, id)
		}
		c.Next()
	})
	reminderHandler.RegisterRoutes(api)
	habitHandler.RegisterRoutes(api)

	return &testEnv{router: r, reminders: reminderRepo, habits: habitRepo}
}

func (e *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type reminderJSON struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Date          string  `json:"date"`
	Time          *string `json:"time"`
	FrequencyDays *int    `json:"frequency_days"`
	PillCount     *int    `json:"pill_count"`
	Completed     bool    `json:"completed"`
}

type createResponse struct {
	Message   string         `json:"message"`
	Count     int            `json:"count"`
	Reminder  *reminderJSON  `json:"reminder"`
	Reminders []reminderJSON `json:"reminders"`
}

type listResponse struct {
	Reminders []reminderJSON `json:"reminders"`
}

type clearResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

func dates(list []reminderJSON) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Date)
	}
	return out
}

func titles(list []reminderJSON) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.Title)
	}
	return out
}
