package app

import (
	"fmt"
	"io"
	"log/slog"

	"ridehail/internal/config"
	"ridehail/internal/events"
)

// NewEventPublisher returns an AMQP publisher when a broker URL is configured
// and a log publisher otherwise. The closer releases the broker connection.
func NewEventPublisher(cfg config.RabbitMQConfig, logger *slog.Logger) (events.Publisher, io.Closer, error) {
	if cfg.URL == "" {
		return events.NewLogPublisher(logger), nopCloser{}, nil
	}

	pub, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return pub, pub, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
