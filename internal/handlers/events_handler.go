package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/orderdesk/backend/internal/live"
)

// eventsHandler serves the live-update stream. Each event's data field is a
// JSON document: a full Order for creations, {"type":"order.updated",...}
// for status changes. The session is dropped from the hub when the client
// disconnects.
func eventsHandler(hub *live.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ch := hub.Add()
		defer hub.Remove(id)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Flush()

		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("message", string(ev.Payload))
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
