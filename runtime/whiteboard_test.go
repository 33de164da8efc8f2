package runtime

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomsync/domain"
	"roomsync/mocks"
)

func freehand(roomID domain.RoomID) domain.WhiteboardElement {
	return domain.WhiteboardElement{
		ID:     uuid.New(),
		Room:   roomID,
		Kind:   domain.ElementFreehand,
		Points: []domain.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	}
}

func TestWhiteboard_ApplyStroke_Appends_In_Order(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIWhiteboardRepository(ctrl)
	store.EXPECT().LastSeq(gomock.Any()).Return(uint64(0), nil)
	store.EXPECT().GetElements(gomock.Any()).Return(nil, nil)
	store.EXPECT().StoreElement(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	board := NewWhiteboard(store, slog.Default())
	roomID := domain.RoomID("design-review")

	el1 := freehand(roomID)
	el2 := freehand(roomID)

	// When two strokes arrive in order
	first := board.ApplyStroke(el1)
	second := board.ApplyStroke(el2)

	// Then each broadcast list reflects the order of arrival
	req.Equal([]domain.WhiteboardElement{el1}, first)
	req.Equal([]domain.WhiteboardElement{el1, el2}, second)
}

func TestWhiteboard_Clear_Then_Stroke(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIWhiteboardRepository(ctrl)
	store.EXPECT().LastSeq(gomock.Any()).Return(uint64(0), nil)
	store.EXPECT().GetElements(gomock.Any()).Return(nil, nil)
	store.EXPECT().StoreElement(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	store.EXPECT().Clear(gomock.Any()).Return(nil)
	board := NewWhiteboard(store, slog.Default())
	roomID := domain.RoomID("design-review")

	board.ApplyStroke(freehand(roomID))
	board.ApplyStroke(freehand(roomID))

	// When the board is cleared and a new stroke lands afterwards
	req.NoError(board.Clear(roomID))
	after := freehand(roomID)
	elements := board.ApplyStroke(after)

	// Then only the post-clear element exists
	req.Equal([]domain.WhiteboardElement{after}, elements)
}

func TestWhiteboard_Clear_Blocks_Stale_Restore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIWhiteboardRepository(ctrl)
	roomID := domain.RoomID("design-review")
	stale := freehand(roomID)

	// The store still holds a pre-clear element; a lazy load after the
	// clear must not resurrect it.
	store.EXPECT().GetElements(roomID).Return([]domain.WhiteboardElement{stale}, nil).AnyTimes()
	store.EXPECT().Clear(roomID).Return(nil)
	board := NewWhiteboard(store, slog.Default())

	// When the first touch of the room is the clear itself
	req.NoError(board.Clear(roomID))

	// Then nothing reappears
	req.Empty(board.Elements(roomID))
}

func TestWhiteboard_Sequence_Resumes_After_Restart(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIWhiteboardRepository(ctrl)
	roomID := domain.RoomID("design-review")
	first := freehand(roomID)
	second := freehand(roomID)

	// Two elements were persisted under sequences 1 and 2 before a restart
	store.EXPECT().LastSeq(roomID).Return(uint64(2), nil)
	store.EXPECT().GetElements(roomID).Return([]domain.WhiteboardElement{first, second}, nil)
	board := NewWhiteboard(store, slog.Default())

	// When a stroke lands on the restarted board
	after := freehand(roomID)
	store.EXPECT().StoreElement(uint64(3), after).Return(nil)
	elements := board.ApplyStroke(after)

	// Then its key sorts after the persisted ones and order is preserved
	req.Equal([]domain.WhiteboardElement{first, second, after}, elements)
}

func TestWhiteboard_Restores_Persisted_State_On_First_Touch(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockIWhiteboardRepository(ctrl)
	roomID := domain.RoomID("design-review")
	persisted := freehand(roomID)

	store.EXPECT().LastSeq(roomID).Return(uint64(1), nil)
	store.EXPECT().GetElements(roomID).Return([]domain.WhiteboardElement{persisted}, nil)
	board := NewWhiteboard(store, slog.Default())

	// When the room is first read after a restart
	elements := board.Elements(roomID)

	// Then the durable board state is served
	req.Equal([]domain.WhiteboardElement{persisted}, elements)

	// And the load happens only once
	req.Equal(elements, board.Elements(roomID))
}
