package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/middleware"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/sse"
	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// SSEHandler streams product change events.
type SSEHandler struct {
	hub          *sse.Hub
	auth         *middleware.JWTMiddleware
	pingInterval time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, auth *middleware.JWTMiddleware) *SSEHandler {
	return &SSEHandler{hub: hub, auth: auth, pingInterval: 30 * time.Second}
}

// Stream handles GET /api/v1/products/events?token=<jwt>[&mine=1][&category=<key>]
// EventSource API cannot set custom headers, so JWT is passed via query param.
// mine=1 keeps only events for the caller's own products.
func (h *SSEHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token query parameter")
		return
	}

	claims, ok := h.auth.Authenticate(c.Request.Context(), token)
	if !ok {
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	clientID := fmt.Sprintf("user-%d-%d", claims.UserID, time.Now().UnixNano())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	filter := sse.Filter{Category: c.Query("category")}
	if mine, _ := strconv.ParseBool(c.Query("mine")); mine {
		filter.OwnerID = claims.UserID
	}
	client := h.hub.Register(clientID, filter)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int64("user_id", claims.UserID).Msg("Product SSE stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("product", string(data))
			return true
		case <-time.After(h.pingInterval):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().UTC().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
