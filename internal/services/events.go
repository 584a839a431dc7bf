package services

import (
	"encoding/json"
	"log"
)

// EventPublisher publishes order lifecycle events to the message broker.
// *rabbitmq.Client satisfies this. Services treat a nil publisher as
// "broker not configured" and degrade to a log line; event publication is
// never allowed to fail a committed order.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// publishEvent marshals and publishes an event, logging instead of failing
// when the broker is missing or unreachable.
func publishEvent(events EventPublisher, routingKey string, payload map[string]interface{}) {
	if events == nil {
		log.Printf("Event publisher not configured. Skipping %s event.", routingKey)
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
