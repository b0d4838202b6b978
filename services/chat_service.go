package services

import (
	"context"
	"flash-chat/domain"
	"flash-chat/errors"
	"flash-chat/feed"
)

type IChatService interface {
	Join(room domain.RoomID, callbacks feed.Callbacks) error
	Post(ctx context.Context, body string) error
	Leave()
	SignOut() error
	Me() (string, bool)
}

// ChatService ties the signed-in session to a feed controller: it resolves
// the sender from the session and hands it to the feed explicitly.
type ChatService struct {
	session *Session
	feed    *feed.ChatFeedController
}

func NewChatService(session *Session, feed *feed.ChatFeedController) *ChatService {
	return &ChatService{session: session, feed: feed}
}

func (s *ChatService) Join(room domain.RoomID, callbacks feed.Callbacks) error {
	return s.feed.Activate(room, callbacks)
}

func (s *ChatService) Post(ctx context.Context, body string) error {
	sender, ok := s.session.CurrentUser()
	if !ok {
		return errors.ErrNotSignedIn
	}
	return s.feed.Send(ctx, sender, body)
}

func (s *ChatService) Leave() {
	s.feed.Deactivate()
}

// SignOut leaves the room then forgets the identity.
func (s *ChatService) SignOut() error {
	s.feed.Deactivate()
	return s.session.SignOut()
}

func (s *ChatService) Me() (string, bool) {
	return s.session.CurrentUser()
}
