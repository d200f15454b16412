package service

import (
	"context"
	"encoding/json"
	"log"

	"riverai-be/internal/websocket"
	"riverai-be/pkg/events"
	pktNats "riverai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process ingestion topic and fans each
// message out: a NATS event for external systems and a websocket
// broadcast for connected clients. Both sinks are best-effort.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pktNats.Publisher
	hub            *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pktNats.Publisher,
	hub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
		hub:            hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload IngestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingestion message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if payload.Error != "" {
		log.Printf("[WARN] Document ingestion failed: %s: %s", payload.Filename, payload.Error)

		if cs.eventPublisher != nil {
			evt := events.NewDocumentIngestionFailed(payload.Filename, payload.Error)
			if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
				log.Printf("[WARN] Failed to publish %s event: %v", evt.EventType(), err)
			}
		}
		if cs.hub != nil {
			cs.hub.Broadcast("document_ingestion_failed", map[string]interface{}{
				"filename": payload.Filename,
				"error":    payload.Error,
			})
		}

		msg.Ack()
		return
	}

	log.Printf("[INFO] Document ingested: %s (%d chunks)", payload.Filename, payload.Chunks)

	if cs.eventPublisher != nil {
		evt := events.NewDocumentIngested(payload.Filename, payload.Pages, payload.Chunks)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			// External bus is auxiliary, keep going.
			log.Printf("[WARN] Failed to publish %s event: %v", evt.EventType(), err)
		}
	}

	if cs.hub != nil {
		cs.hub.Broadcast("document_ingested", map[string]interface{}{
			"filename": payload.Filename,
			"pages":    payload.Pages,
			"chunks":   payload.Chunks,
		})
	}

	msg.Ack()
}
