package provider

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/bingo-game-module/pkg/providers"
)

// MessagePublisher publishes a value under a routing key. *amqp.Publisher implements it.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, value interface{}) error
}

// AMQPPublisher implements providers.EventPublisher on a RabbitMQ exchange.
// Each event goes to <routingKey>.<event type>.
type AMQPPublisher struct {
	pub        MessagePublisher
	routingKey string
}

var _ providers.EventPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher creates a new AMQP event publisher
func NewAMQPPublisher(pub MessagePublisher, routingKey string) *AMQPPublisher {
	return &AMQPPublisher{pub: pub, routingKey: routingKey}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event *providers.GameEvent) error {
	key := fmt.Sprintf("%s.%s", p.routingKey, event.Type)
	return p.pub.Publish(ctx, key, event)
}
