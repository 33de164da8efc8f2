package domain

import "github.com/google/uuid"

type ElementKind string

const (
	ElementFreehand  ElementKind = "freehand"
	ElementLine      ElementKind = "line"
	ElementRectangle ElementKind = "rectangle"
)

// Point is a single coordinate of a stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WhiteboardElement is one drawn shape. Elements are stored per room as an
// ordered, append-only sequence in server-receive order; a clear replaces
// the whole sequence.
type WhiteboardElement struct {
	ID          uuid.UUID
	Room        RoomID
	AuthorID    string
	Kind        ElementKind
	Points      []Point
	Color       string
	StrokeWidth float64
}
