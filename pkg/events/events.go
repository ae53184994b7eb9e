package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/choncance/choncance-backend/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("choncance-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject)

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// NoopPublisher drops events; used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

const (
	UserRegistered         = "user.registered"
	HostRequested          = "host.requested"
	HostReviewed           = "host.reviewed"
	PasswordResetRequested = "password.reset_requested"
)

type UserRegisteredEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type HostRequestedEvent struct {
	UserID         string    `json:"user_id"`
	BusinessNumber string    `json:"business_number"`
	RequestedAt    time.Time `json:"requested_at"`
}

type HostReviewedEvent struct {
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// The reset token itself never leaves the process on the bus.
type PasswordResetRequestedEvent struct {
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}
