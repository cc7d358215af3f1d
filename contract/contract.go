//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-client/domain/event"
	"context"
)

// EventSink consumes events emitted by the realtime manager and the
// conversation store. Implementations must tolerate payload types they
// do not understand.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}
