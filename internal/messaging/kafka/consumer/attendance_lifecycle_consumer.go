package consumer

import (
	"context"
	"encoding/json"

	"go-presence/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatsInvalidator is the slice of the stats service the consumer needs.
type StatsInvalidator interface {
	InvalidatePartial(ctx context.Context, orgID, subjectID, eventID string) error
}

// ConsumeAttendanceLifecycle drops cached partial attendance whenever a
// record changes, so dashboards converge faster than the cache TTL alone
// would allow. Invalidation is idempotent, which makes at-least-once
// delivery safe.
func ConsumeAttendanceLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	statsService StatsInvalidator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.attendance_lifecycle")
	log.Info("attendance lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("attendance lifecycle consumer stopped")
				return
			}
			log.Error("fetch attendance lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.AttendanceRecordedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode attendance lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := statsService.InvalidatePartial(ctx, event.OrgID, event.SubjectID, event.EventID); err != nil {
			log.Error("invalidate partial attendance failed",
				zap.String("record_id", event.RecordID),
				zap.String("event_id", event.EventID),
				zap.String("subject_id", event.SubjectID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit attendance lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("partial attendance cache invalidated",
			zap.String("event_type", event.EventType),
			zap.String("record_id", event.RecordID),
			zap.String("event_id", event.EventID),
			zap.String("subject_id", event.SubjectID),
		)
	}
}
