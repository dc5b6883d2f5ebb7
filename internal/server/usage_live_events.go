package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/actorhub/actorhub/internal/usage/liveevents"
	"github.com/gin-gonic/gin"
)

func (s *Server) StreamUsageLiveEvents(c *gin.Context) {
	if s.liveUsageEvents == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	id, ok := pathUUID(c, "id")
	if !ok || !s.requireIdentityOwner(c, id) {
		return
	}
	identityID := id.String()

	subscription, backlog, err := s.liveUsageEvents.Subscribe(identityID)
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	defer subscription.Close()

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}

	for _, event := range backlog {
		if err := writeLiveUsageEvent(writer, identityID, event); err != nil {
			return
		}
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-subscription.Events():
			if err := writeLiveUsageEvent(writer, identityID, event); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeLiveUsageEvent(w io.Writer, identityID string, event liveevents.LiveEvent) error {
	payload := event
	if payload.IdentityID == "" {
		payload.IdentityID = identityID
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
