package server

import (
	"context"
	"log"

	"clipstream/internal/events"
	"clipstream/internal/models"
	"clipstream/internal/notifications"
)

// realtimeSink delivers drained events to subscribers. With Redis available
// it publishes through the notifier so every server instance fans out to its
// own clients; without Redis it broadcasts straight to the local hub.
// Delivering through exactly one path keeps per-subscriber delivery
// exactly-once.
type realtimeSink struct {
	hub      *notifications.Hub
	notifier *notifications.Notifier
}

func newRealtimeSink(hub *notifications.Hub, notifier *notifications.Notifier) *realtimeSink {
	return &realtimeSink{hub: hub, notifier: notifier}
}

func (r *realtimeSink) Deliver(channel string, payload []byte) {
	if r.notifier != nil {
		if err := r.notifier.Publish(context.Background(), channel, payload); err != nil {
			log.Printf("failed to publish to channel %s: %v", channel, err)
		}
		return
	}
	if r.hub != nil {
		r.hub.Broadcast(channel, payload)
	}
}

// Event payload shapes are client-visible; do not change the field names or
// the type values.

func (s *Server) publishLikeEvent(userID uint, ref models.ContentRef, liked bool) {
	eventType := "like"
	if !liked {
		eventType = "unlike"
	}
	s.bus.Publish(events.Event{
		Kind:    "like",
		Channel: notifications.ContentChannel(ref),
		Payload: map[string]interface{}{
			"type":      eventType,
			"userId":    userID,
			"contentId": ref.ID,
		},
	})
}

func (s *Server) publishCommentEvent(eventType string, ref models.ContentRef, comment *models.Comment) {
	payload := map[string]interface{}{"type": eventType}
	if eventType == "delete" {
		payload["commentId"] = comment.ID
	} else {
		payload["comment"] = comment
	}
	s.bus.Publish(events.Event{
		Kind:    "comment",
		Channel: notifications.ContentChannel(ref),
		Payload: payload,
	})
}

func (s *Server) publishFollowEvent(userID, targetUserID uint, followed bool) {
	eventType := "follow"
	if !followed {
		eventType = "unfollow"
	}
	s.bus.Publish(events.Event{
		Kind:    "follow",
		Channel: notifications.UserChannel(targetUserID),
		Payload: map[string]interface{}{
			"type":         eventType,
			"userId":       userID,
			"targetUserId": targetUserID,
		},
	})
}
