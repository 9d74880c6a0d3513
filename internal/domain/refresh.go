package domain

import "time"

// RefreshMessageType tags refresh messages on the broker
const RefreshMessageType = "cache.refresh"

// RefreshRequest asks the worker to recompute the cached aggregates of a query
type RefreshRequest struct {
	ID          string    `json:"id"`
	Query       Query     `json:"query"`
	Attempt     int       `json:"attempt"`
	RequestedAt time.Time `json:"requestedAt"`
}
