package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/s3arena/internal/model"
)

// Payload is the JSON body of a task lifecycle event
type Payload struct {
	Type      model.EventType `json:"type"`
	TaskID    model.TaskID    `json:"task_id"`
	PlayerID  model.UserID    `json:"player_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher fans task events out to the hubs of their recipients
type Publisher struct {
	hubs   *HubManager
	logger *slog.Logger
}

// NewPublisher creates a Publisher
func NewPublisher(hubs *HubManager, logger *slog.Logger) *Publisher {
	return &Publisher{
		hubs:   hubs,
		logger: logger.With(slog.String("component", "sse-publisher")),
	}
}

// Publish sends the event to every recipient with an open stream.
// Recipients without a hub are skipped.
func (p *Publisher) Publish(ctx context.Context, event model.TaskEvent) {
	data, err := json.Marshal(Payload{
		Type:      event.Type,
		TaskID:    event.TaskID,
		PlayerID:  event.PlayerID,
		Timestamp: event.Timestamp,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode event", slog.Any("error", err))
		return
	}

	seen := make(map[model.UserID]bool, len(event.Recipients))
	for _, id := range event.Recipients {
		if seen[id] {
			continue
		}
		seen[id] = true
		if hub := p.hubs.GetHub(id); hub != nil {
			hub.BroadcastEvent(string(event.Type), string(data))
		}
	}
}
