package common

import (
	"github.com/google/uuid"
)

// NewProxyID generates a unique catalog record id with the "proxy_" prefix.
func NewProxyID() string {
	return "proxy_" + uuid.New().String()
}

// NewJobID generates a unique job id with the "job_" prefix.
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewWebhookID generates a unique webhook id with the "wh_" prefix.
func NewWebhookID() string {
	return "wh_" + uuid.New().String()
}
