package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Auth class: the connection is refused before any room state is touched.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")

	// Not-found class: silent no-op for idempotent operations,
	// surfaced for create-like operations.
	ErrRoomNotFound    = fmt.Errorf("room not found")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrUserNotFound    = fmt.Errorf("user not found")

	// Validation class: rejected before any mutation.
	ErrEmptyContent        = fmt.Errorf("message content is empty")
	ErrContentTooLong      = fmt.Errorf("message content exceeds maximum length")
	ErrAttachmentTooLarge  = fmt.Errorf("attachment exceeds maximum size")
	ErrAttachmentForbidden = fmt.Errorf("attachment type is not allowed")

	// Delivery class: a broadcast target was unreachable at send time.
	// Dropped without retry; catch-up relies on the persisted log.
	ErrDeliveryDropped = fmt.Errorf("delivery dropped")

	ErrNotAuthorized = fmt.Errorf("not authorized for this room")
)
