//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"flash-chat/domain"
	"reflect"
)

// Delivery is one notification of a store subscription: either the full
// ordered record set of the room or a failure.
type Delivery struct {
	Records []domain.Record
	Err     error
}

// MessageStore is the durable, subscribable record store a feed reads from.
type MessageStore interface {
	// Subscribe delivers the room's full record set now and on every change,
	// ordered by orderBy. The channel is closed once ctx is done.
	Subscribe(ctx context.Context, room domain.RoomID, orderBy string) (<-chan Delivery, error)
	// Append writes a new record; the store assigns its send time.
	Append(ctx context.Context, room domain.RoomID, draft domain.Draft) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
