package models

import "time"

// Webhook is a registered subscriber for fan-out events. active=true implies
// the record participates in fan-out for any event name in Events.
type Webhook struct {
	ID              string    `json:"id" boltholdKey:"ID"`
	URL             string    `json:"url"`
	Events          []string  `json:"events"`
	SecretKey       string    `json:"secret_key,omitempty"`
	Active          bool      `json:"active" boltholdIndex:"Active"`
	CreatedAt       time.Time `json:"created_at"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	Failures        int       `json:"failures"`
}

// Subscribes reports whether the webhook is active and subscribed to event.
func (w *Webhook) Subscribes(event string) bool {
	if !w.Active {
		return false
	}
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
