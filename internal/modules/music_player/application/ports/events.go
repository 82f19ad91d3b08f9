package ports

import (
	"context"
	"reflect"

	"github.com/sglre6355/tunebot/internal/modules/music_player/domain"
)

// EventPublisher queues events for asynchronous delivery.
// Publish never blocks; it returns an error when the event could not be queued,
// in which case the event is lost.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber registers handlers by concrete event type.
// Handlers for events of one guild run one at a time, in publish order.
type EventSubscriber interface {
	Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error
}
