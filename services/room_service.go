package services

import (
	"context"

	"github.com/google/uuid"

	"roomsync/contract"
	"roomsync/domain"
	"roomsync/runtime"
	"roomsync/search"
)

// RoomService is the facade the transport layer talks to. It adds nothing
// on top of the orchestrator today, but keeps the websocket handlers
// decoupled from the runtime package.
type RoomService struct {
	orchestrator *runtime.Orchestrator
}

func NewRoomService(o *runtime.Orchestrator) *RoomService {
	return &RoomService{orchestrator: o}
}

func (s *RoomService) Connect(user domain.User, sink contract.EventSink) *runtime.Session {
	return s.orchestrator.Connect(user, sink)
}

func (s *RoomService) Disconnect(ctx context.Context, session *runtime.Session) {
	s.orchestrator.Disconnect(ctx, session)
}

func (s *RoomService) JoinRoom(ctx context.Context, session *runtime.Session, roomID domain.RoomID) error {
	return s.orchestrator.JoinRoom(ctx, session, roomID)
}

func (s *RoomService) LeaveRoom(ctx context.Context, session *runtime.Session, roomID domain.RoomID) {
	s.orchestrator.LeaveRoom(ctx, session, roomID)
}

func (s *RoomService) PostMessage(ctx context.Context, session *runtime.Session, roomID domain.RoomID,
	content string, attachments []domain.Attachment) (domain.Message, error) {
	return s.orchestrator.PostMessage(ctx, session, roomID, content, attachments)
}

func (s *RoomService) MarkRead(ctx context.Context, session *runtime.Session, roomID domain.RoomID, messageIDs []uuid.UUID) {
	s.orchestrator.MarkRead(ctx, session, roomID, messageIDs)
}

func (s *RoomService) TypingStart(ctx context.Context, session *runtime.Session, roomID domain.RoomID) {
	s.orchestrator.TypingStart(ctx, session, roomID)
}

func (s *RoomService) TypingStop(ctx context.Context, session *runtime.Session, roomID domain.RoomID) {
	s.orchestrator.TypingStop(ctx, session, roomID)
}

func (s *RoomService) ApplyStroke(ctx context.Context, session *runtime.Session, roomID domain.RoomID,
	element domain.WhiteboardElement) domain.WhiteboardElement {
	return s.orchestrator.ApplyStroke(ctx, session, roomID, element)
}

func (s *RoomService) ClearWhiteboard(ctx context.Context, session *runtime.Session, roomID domain.RoomID) error {
	return s.orchestrator.ClearWhiteboard(ctx, session, roomID)
}

func (s *RoomService) WhiteboardElements(roomID domain.RoomID) []domain.WhiteboardElement {
	return s.orchestrator.WhiteboardElements(roomID)
}

func (s *RoomService) GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	return s.orchestrator.GetMessages(roomID, cursor)
}

func (s *RoomService) SearchMessages(ctx context.Context, roomID domain.RoomID, raw string) ([]search.Hit, error) {
	return s.orchestrator.SearchMessages(ctx, roomID, raw)
}
