package kafka_middleware

import (
	"context"
	"time"

	"labbook/pkg/kafka"
	"labbook/pkg/logger"
)

// PublishLogging logs every publish attempt with its outcome and duration.
func PublishLogging(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		duration := time.Since(start)
		if err != nil {
			log.Error("Event publish failed",
				"event_id", msg.GetEventID(),
				"event_type", msg.GetEventType(),
				"key", msg.Key,
				"duration_ms", duration.Milliseconds(),
				"error", err,
			)
			return err
		}

		log.Debug("Event published",
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"key", msg.Key,
			"duration_ms", duration.Milliseconds(),
		)
		return nil
	}
}
