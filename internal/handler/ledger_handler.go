package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/internal/errors"
	"pomodoro/internal/service"
)

type LedgerHandler struct {
	ledgerService *service.LedgerService
}

type updateSettingsRequest struct {
	WorkSeconds           int  `json:"work_seconds"`
	BreakSeconds          int  `json:"break_seconds"`
	LongBreakSeconds      *int `json:"long_break_seconds"`
	CyclesBeforeLongBreak *int `json:"cycles_before_long_break"`
	DailyGoalMinutes      *int `json:"daily_goal_minutes"`
}

type sessionCompleteRequest struct {
	SessionID       string     `json:"session_id"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationSeconds *float64   `json:"duration_seconds"`
}

func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (h *LedgerHandler) Health(c *gin.Context) {
	ok := h.ledgerService.Ping(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"ok": ok})
}

func (h *LedgerHandler) GetSettings(c *gin.Context) {
	settings, apiErr := h.ledgerService.GetSettings(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, settings)
}

func (h *LedgerHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := decodeValidated(c.Request.Body, settingsRequestSchema, &req); err != nil {
		writeError(c, apperrors.Validation("Invalid values"))
		return
	}

	settings, apiErr := h.ledgerService.UpdateSettings(c.Request.Context(), service.UpdateSettingsInput{
		WorkSeconds:           req.WorkSeconds,
		BreakSeconds:          req.BreakSeconds,
		LongBreakSeconds:      req.LongBreakSeconds,
		CyclesBeforeLongBreak: req.CyclesBeforeLongBreak,
		DailyGoalMinutes:      req.DailyGoalMinutes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, settings)
}

func (h *LedgerHandler) GetProgress(c *gin.Context) {
	progress, apiErr := h.ledgerService.GetProgress(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, progress)
}

func (h *LedgerHandler) CompleteSession(c *gin.Context) {
	var req sessionCompleteRequest
	if err := decodeValidated(c.Request.Body, sessionCompleteRequestSchema, &req); err != nil {
		writeError(c, apperrors.Validation("Invalid session"))
		return
	}

	input := service.RecordSessionInput{
		SessionID: req.SessionID,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	}
	if req.DurationSeconds != nil {
		duration := int(math.Round(*req.DurationSeconds))
		input.DurationSeconds = &duration
	}

	progress, apiErr := h.ledgerService.RecordWorkSession(c.Request.Context(), input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, progress)
}

func (h *LedgerHandler) GetAchievements(c *gin.Context) {
	achievements, apiErr := h.ledgerService.GetAchievements(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, achievements)
}

func (h *LedgerHandler) GetHistory(c *gin.Context) {
	limit, apiErr := queryInt(c, "limit")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	sessions, apiErr := h.ledgerService.ListSessions(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, sessions)
}

func (h *LedgerHandler) GetSummary(c *gin.Context) {
	days, apiErr := queryInt(c, "days")
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	summary, apiErr := h.ledgerService.Summary(c.Request.Context(), days)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	writeData(c, summary)
}

// queryInt reads an optional integer query parameter. Zero means unset.
func queryInt(c *gin.Context, key string) (int, *apperrors.APIError) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.BadRequest("invalid_query", key+" must be an integer")
	}
	return value, nil
}
