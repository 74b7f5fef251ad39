// Package api exposes the monitor over HTTP: direct trigger endpoints for
// interaction writes, alert listing, health and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sentinel/internal/logger"
	"sentinel/internal/metrics"
	"sentinel/internal/store"
	"sentinel/pkg/models"
)

const defaultAlertLimit = 50

// Evaluator handles one interaction change.
type Evaluator interface {
	Handle(ctx context.Context, ev models.ChangeEvent) (*models.Alert, error)
}

// Handler serves the HTTP endpoints. Interactions and Alerts are optional.
type Handler struct {
	Monitor      Evaluator
	Interactions store.InteractionWriter
	Alerts       store.AlertLister
	Metrics      *metrics.Metrics
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	v1 := r.Group("/v1/users/:userID")
	v1.PUT("/interactions/:interactionID", h.PutInteraction)
	v1.DELETE("/interactions/:interactionID", h.DeleteInteraction)
	v1.GET("/alerts", h.ListAlerts)
	return r
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PutInteraction stores the record when a store is wired and evaluates it
// synchronously.
func (h *Handler) PutInteraction(c *gin.Context) {
	userID := c.Param("userID")
	interactionID := c.Param("interactionID")

	var rec models.Interaction
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec.ID = interactionID
	rec.UserID = userID

	if h.Interactions != nil {
		if err := h.Interactions.PutInteraction(c.Request.Context(), &rec); err != nil {
			logger.With("user", userID, "interaction", interactionID).Errorf("Failed to store interaction: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	h.evaluate(c, models.ChangeEvent{UserID: userID, InteractionID: interactionID, After: &rec})
}

// DeleteInteraction forwards a deletion to the monitor, which never raises
// an alert for it. Stored interaction records are immutable; DELETE only
// signals the trigger and leaves the record in place.
func (h *Handler) DeleteInteraction(c *gin.Context) {
	h.evaluate(c, models.ChangeEvent{
		UserID:        c.Param("userID"),
		InteractionID: c.Param("interactionID"),
	})
}

// ListAlerts returns the newest alerts for a user, oldest first.
func (h *Handler) ListAlerts(c *gin.Context) {
	if h.Alerts == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "alert listing is not supported by the configured store"})
		return
	}

	limit := defaultAlertLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	alerts, err := h.Alerts.ListAlerts(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) evaluate(c *gin.Context, ev models.ChangeEvent) {
	alert, err := h.Monitor.Handle(c.Request.Context(), ev)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
