package messaging

import (
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/domain/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/shared"
)

// RegisterAuditHandlers logs the rotation events kitchen staff care about
func RegisterAuditHandlers(d *Dispatcher, log *zap.Logger) {
	audit := log.Named("audit")

	d.Register(rotation.TemplateCreatedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(rotation.TemplateCreatedEvent)
		if !ok {
			return nil
		}
		audit.Info("Rotation template created",
			zap.String("template_id", e.TemplateID.String()),
			zap.Int("week_count", e.WeekCount),
		)
		return nil
	})

	d.Register(rotation.SwapAppliedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(rotation.SwapAppliedEvent)
		if !ok {
			return nil
		}
		audit.Info("Swap applied",
			zap.String("slot", e.Key.String()),
			zap.Int64("from", int64(e.FromRecipeID)),
			zap.Int64("to", int64(e.ToRecipeID)),
			zap.String("reason", e.Reason),
		)
		return nil
	})

	d.Register(rotation.LocationRemovedEvent{}.EventName(), func(event shared.DomainEvent) error {
		e, ok := event.(rotation.LocationRemovedEvent)
		if !ok {
			return nil
		}
		audit.Info("Location removed from rotation",
			zap.String("template_id", e.TemplateID.String()),
			zap.String("location_id", e.LocationID.String()),
		)
		return nil
	})
}
