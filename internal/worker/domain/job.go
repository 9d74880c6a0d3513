package domain

import (
	marketdomain "github.com/AnassEREKYSY/MarketPulse/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RefreshJob is a decoded refresh message waiting for a worker goroutine
type RefreshJob struct {
	Request  marketdomain.RefreshRequest
	Delivery amqp.Delivery
}
