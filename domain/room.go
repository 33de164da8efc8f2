// Package domain contains core concepts of the room synchronization engine.
// No runtime, network, or UI logic should be added here.
package domain

// RoomID identifies a logical channel grouping members, messages,
// typing state, and whiteboard state.
type RoomID string

// User is the identity attached to a session. A user may hold several
// concurrent sessions (e.g. two browser tabs) in the same room.
type User struct {
	ID   string
	Name string
}
