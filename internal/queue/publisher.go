package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
)

// Publisher sends NFTTransferredEvent messages to a durable queue on the
// default exchange.  It dials once per publish.
type Publisher struct {
	URL   string
	Queue string
	Log   *logger.Logger
}

func NewPublisher(url, queueName string, log *logger.Logger) *Publisher {
	return &Publisher{URL: url, Queue: queueName, Log: log}
}

// PublishTransferred publishes ev as a persistent JSON message.  An empty
// EventID is filled with a fresh UUID which also becomes the AMQP
// message id.  Errors are logged and returned; callers may ignore them.
func (p *Publisher) PublishTransferred(ctx context.Context, ev NFTTransferredEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		p.Log.Errorw("queue: marshal event failed", "err", err)
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warnw("queue: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warnw("queue: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		p.Log.Warnw("queue: declare failed", "queue", p.Queue, "err", err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, msg); err != nil {
		p.Log.Warnw("queue: publish failed", "queue", p.Queue, "err", err)
		return err
	}
	return nil
}
