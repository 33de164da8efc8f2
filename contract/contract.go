//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"

	"roomsync/domain"
	"roomsync/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// EventSink consumes a server-to-room event for one destination
// (a connection, the search index, the activity log...). Consume must
// never block on a slow destination; drop and report instead.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// RoomAuthorizer decides whether a user may enter a room before the
// session is admitted to the fan-out. Implementations typically call the
// external room-membership collaborator.
type RoomAuthorizer interface {
	Authorize(ctx context.Context, user domain.User, roomID domain.RoomID) error
}

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	StoreReceipt(roomID domain.RoomID, messageID uuid.UUID, userID string, at time.Time) error
	GetMessage(roomID domain.RoomID, id uuid.UUID) (domain.Message, error)
	GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

type IWhiteboardRepository interface {
	StoreElement(seq uint64, element domain.WhiteboardElement) error
	GetElements(roomID domain.RoomID) ([]domain.WhiteboardElement, error)
	LastSeq(roomID domain.RoomID) (uint64, error)
	Clear(roomID domain.RoomID) error
}

type IActivityRepository interface {
	Record(activity domain.Activity) error
}

type IUserRepository interface {
	CreateUser(email, name, passwordHash string) (string, error)
	GetUserByEmail(email string) (domain.Account, error)
}
