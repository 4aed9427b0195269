package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ipshield/reputation-engine/internal/stream"
)

// writeSSE drains events onto the response as Server-Sent Events,
// matching the `data: <json>\n\n` framing §6.1 specifies, with a trailing
// "[DONE]" line. Flushes after every event so the client sees results as
// they complete rather than buffered until the connection closes.
func writeSSE(c *gin.Context, events <-chan stream.Event) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)

	for ev := range events {
		raw, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := c.Writer.Write([]byte("data: ")); err != nil {
			return
		}
		if _, err := c.Writer.Write(raw); err != nil {
			return
		}
		if _, err := c.Writer.Write([]byte("\n\n")); err != nil {
			return
		}
		if ok {
			flusher.Flush()
		}
	}

	c.Writer.Write([]byte("data: [DONE]\n\n"))
	if ok {
		flusher.Flush()
	}
}
