package api

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moodchat/internal/models"
	"moodchat/internal/worker"
)

//go:embed web
var webFS embed.FS

// Replier produces the bot reply for one message.
type Replier interface {
	Do(ctx context.Context, text string) (string, error)
}

// Handler wires HTTP routes to the reply dispatcher and serves the widget page.
type Handler struct {
	replies Replier
	logger  zerolog.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(replies Replier) *Handler {
	return &Handler{
		replies: replies,
		logger:  log.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(RequestID(), AccessLog(h.logger))

	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		// embedded at build time, cannot be missing
		panic(err)
	}
	router.GET("/", h.home)
	router.StaticFS("/static", http.FS(static))
	router.GET("/healthz", h.health)
	router.POST("/get", h.getBotResponse)
}

func (h *Handler) home(c *gin.Context) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "page unavailable"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getBotResponse(c *gin.Context) {
	var req struct {
		Message *string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := h.replies.Do(c.Request.Context(), *req.Message)
	if err != nil {
		logger := h.logger.With().Str("request_id", c.GetString(requestIDKey)).Logger()
		switch {
		case errors.Is(err, worker.ErrBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
		case errors.Is(err, worker.ErrClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is shutting down"})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logger.Debug().Err(err).Msg("client went away")
			c.Status(http.StatusRequestTimeout)
		default:
			logger.Error().Err(err).Msg("reply failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reply failed"})
		}
		return
	}
	c.JSON(http.StatusOK, models.ReplyResponse{Response: reply})
}
