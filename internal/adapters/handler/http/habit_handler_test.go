package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type habitJSON struct {
	Date         string `json:"date"`
	Brushed      bool   `json:"brushed"`
	Flossed      bool   `json:"flossed"`
	BrushingTime *int   `json:"brushing_time"`
}

func TestHabitHandler_Today(t *testing.T) {
	t.Run("Success: Defaults when nothing logged", func(t *testing.T) {
		env := setupRouter()

		w := env.do(t, http.MethodGet, "/api/v1/habits/today", alice, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"date":"2024-03-10","brushed":false,"flossed":false,"brushing_time":null}`, w.Body.String())
	})

	t.Run("Success: Partial patches merge", func(t *testing.T) {
		env := setupRouter()

		w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"brushed":true,"brushing_time":"120"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"flossed":true}`)
		require.Equal(t, http.StatusOK, w.Code)

		day := decode[habitJSON](t, env.do(t, http.MethodGet, "/api/v1/habits/today", alice, ""))
		assert.True(t, day.Brushed)
		assert.True(t, day.Flossed)
		require.NotNil(t, day.BrushingTime)
		assert.Equal(t, 120, *day.BrushingTime)
	})

	t.Run("Success: Null brushing time clears it", func(t *testing.T) {
		env := setupRouter()

		env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"brushing_time":90}`)
		w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"brushing_time":null}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decode[habitJSON](t, w).BrushingTime)
	})

	t.Run("Success: Repeating the same payload keeps one record", func(t *testing.T) {
		env := setupRouter()

		for i := 0; i < 3; i++ {
			w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"brushed":true,"flossed":true}`)
			require.Equal(t, http.StatusOK, w.Code)
		}

		all, err := env.habits.ListAll(t.Context(), alice)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Success: Backfilling a past day", func(t *testing.T) {
		env := setupRouter()

		w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, `{"date":"2024-03-08","brushed":true}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2024-03-08", decode[habitJSON](t, w).Date)
	})

	tests := []struct {
		name string
		body string
	}{
		{"Future date", `{"date":"2024-03-11","brushed":true}`},
		{"Negative brushing time", `{"brushing_time":-5}`},
		{"Malformed date", `{"date":"10/03/2024"}`},
		{"Non-numeric brushing time", `{"brushing_time":"long"}`},
	}
	for _, tt := range tests {
		t.Run("Fail: "+tt.name, func(t *testing.T) {
			env := setupRouter()

			w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			all, err := env.habits.ListAll(t.Context(), alice)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestHabitHandler_HistoryAndStreak(t *testing.T) {
	env := setupRouter()

	for _, body := range []string{
		`{"date":"2024-03-10","brushed":true,"flossed":true,"brushing_time":100}`,
		`{"date":"2024-03-09","brushed":true,"flossed":true,"brushing_time":110}`,
		`{"date":"2024-03-08","brushed":true,"flossed":true}`,
		`{"date":"2024-03-06","brushed":true,"flossed":false}`,
	} {
		w := env.do(t, http.MethodPost, "/api/v1/habits/today", alice, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	t.Run("History newest first", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/habits/history?days=3", alice, "")

		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[struct {
			History []habitJSON `json:"history"`
		}](t, w)
		require.Len(t, resp.History, 3)
		assert.Equal(t, "2024-03-10", resp.History[0].Date)
		assert.Equal(t, "2024-03-08", resp.History[2].Date)
	})

	t.Run("History rejects out of range", func(t *testing.T) {
		for _, q := range []string{"0", "400", "x"} {
			w := env.do(t, http.MethodGet, "/api/v1/habits/history?days="+q, alice, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("Streak", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/habits/streak", alice, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"current_streak": 3,
			"longest_streak": 3,
			"brushing_consistency": 13.3,
			"flossing_consistency": 10,
			"avg_brushing_time": 105,
			"total_tracked_days": 4
		}`, w.Body.String())
	})

	t.Run("Streak of an empty log", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/habits/streak", "bob", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"current_streak": 0,
			"longest_streak": 0,
			"brushing_consistency": 0,
			"flossing_consistency": 0,
			"avg_brushing_time": 0,
			"total_tracked_days": 0
		}`, w.Body.String())
	})

	t.Run("Clear", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, "/api/v1/habits", alice, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 4, decode[clearResponse](t, w).DeletedCount)

		w = env.do(t, http.MethodGet, "/api/v1/habits/history", alice, "")
		assert.JSONEq(t, `{"history":[]}`, w.Body.String())
	})
}
