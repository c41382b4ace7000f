package queue

import (
	"github.com/OFFIS-RIT/annograph/backend/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is the number of retries before a message is dead-lettered.
const MaxRetries = 10

const retriesHeader = "x-retries"

// Retries returns how often msg was already sent to the retry queue.
func Retries(msg amqp091.Delivery) int {
	switch v := msg.Headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError routes a failed message to the retry queue of
// queueName, or to its dead letter queue once MaxRetries is reached.
// The message is acked after a successful re-publish and requeued otherwise.
func HandleProcessingError(ch Channel, msg amqp091.Delivery, queueName string) {
	retries := Retries(msg)

	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}

	target := queueName + "_retry"
	if retries >= MaxRetries {
		target = queueName + "_dlq"
		logger.Info("[Queue] sending message to DLQ", "dlq", target)
	} else {
		headers[retriesHeader] = int32(retries + 1)
	}

	err := ch.Publish(
		"",
		target,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if err != nil {
		logger.Error("[Queue] failed to re-publish message", "queue", target, "err", err)
		if err := msg.Nack(false, true); err != nil {
			logger.Error("[Queue] failed to nack message", "err", err)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] failed to ack message", "err", err)
	}
}
