package resource

import "time"

type RealtimeEventResource struct {
	Topic     string      `json:"topic"`
	Timestamp time.Time   `json:"timestamp"`
	Details   interface{} `json:"details"`
}

func NewRealtimeEvent(topic string, details interface{}) *RealtimeEventResource {
	return &RealtimeEventResource{
		Topic:     topic,
		Timestamp: time.Now().Round(time.Second).UTC(),
		Details:   details,
	}
}
