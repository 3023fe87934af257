package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"gastos/internal/realtime"
)

// StreamHandler serves snapshot subscriptions over server-sent events. Each
// event carries the full collection at the subscribed path, never a delta.
type StreamHandler struct {
	hub      *realtime.Hub
	sessions *realtime.SessionBroadcaster
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *realtime.Hub, sessions *realtime.SessionBroadcaster) *StreamHandler {
	return &StreamHandler{hub: hub, sessions: sessions}
}

// StreamBudgets godoc
// @Summary Stream the budget collection
// @Description Pushes the authenticated user's full budget list as a server-sent event on every change
// @Tags stream
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} models.Budget
// @Failure 401 {object} ErrorResponse
// @Router /stream/budgets [get]
func (h *StreamHandler) StreamBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.stream(c, realtime.BudgetsPath(userID))
}

// StreamBudget godoc
// @Summary Stream a single budget
// @Description Pushes the budget as a server-sent event on every change; a null payload means the budget was deleted
// @Tags stream
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 200 {object} models.Budget
// @Failure 401 {object} ErrorResponse
// @Router /stream/budgets/{id} [get]
func (h *StreamHandler) StreamBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.stream(c, realtime.BudgetPath(userID, c.Param("id")))
}

// StreamExpenses godoc
// @Summary Stream a budget's expenses
// @Description Pushes the budget's full expense list as a server-sent event on every change
// @Tags stream
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Budget ID"
// @Success 200 {object} models.Expense
// @Failure 401 {object} ErrorResponse
// @Router /stream/budgets/{id}/expenses [get]
func (h *StreamHandler) StreamExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.stream(c, realtime.ExpensesPath(userID, c.Param("id")))
}

// StreamSession godoc
// @Summary Stream auth-state transitions
// @Description Pushes the caller's session state as a server-sent event on sign-in and sign-out
// @Tags stream
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {object} realtime.SessionState
// @Failure 401 {object} ErrorResponse
// @Router /stream/session [get]
func (h *StreamHandler) StreamSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	events := make(chan any, 8)
	dispose := h.sessions.Subscribe(userID, func(state realtime.SessionState) {
		offer(events, state)
	})
	defer dispose()

	h.pump(c, events)
}

// stream subscribes to a hub path and pumps snapshots to the client until the
// request context is done.
func (h *StreamHandler) stream(c *gin.Context, path string) {
	events := make(chan any, 8)
	dispose, err := h.hub.Subscribe(path, func(snapshot any) {
		offer(events, snapshot)
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer dispose()

	h.pump(c, events)
}

func (h *StreamHandler) pump(c *gin.Context, events <-chan any) {
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot := <-events:
			c.SSEvent("snapshot", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// offer enqueues a snapshot without blocking the publisher. When the buffer
// is full the oldest pending snapshot is discarded; each event is a full
// snapshot, so the newest one supersedes everything before it.
func offer(events chan any, snapshot any) {
	for {
		select {
		case events <- snapshot:
			return
		default:
			select {
			case <-events:
			default:
			}
		}
	}
}
