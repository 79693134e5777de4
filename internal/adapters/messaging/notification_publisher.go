package messaging

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

var _ ports.NotificationPublisher = (*RabbitMQBroker)(nil)

// PublishNotification delivers one outbox notification to the queue. The
// event type rides in a header so the notification service can route without
// unmarshalling the envelope.
func (rmq *RabbitMQBroker) PublishNotification(ctx context.Context, n ports.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	// Respect context deadline
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return ctx.Err()
		}
	}

	// Use circuit breaker to protect RabbitMQ publish operation
	_, err = rmq.cb.Execute(func() (interface{}, error) {
		err := rmq.ch.PublishWithContext(
			ctx,
			"",            // exchange (default)
			rmq.queueName, // routing key == queue name
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    n.ID,
				Headers:      amqp.Table{"event-type": n.Type},
				Body:         body,
			},
		)
		return nil, err
	})
	return err
}
