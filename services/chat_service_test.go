package services_test

import (
	"context"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	"flash-chat/feed"
	"flash-chat/mocks"
	"flash-chat/services"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newChatService(t *testing.T) (*services.ChatService, *services.Session, *mocks.MockMessageStore, chan contract.Delivery) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	deliveries := make(chan contract.Delivery, 4)
	store.EXPECT().
		Subscribe(gomock.Any(), domain.RoomID("general"), domain.OrderBySentAt).
		Return((<-chan contract.Delivery)(deliveries), nil).
		AnyTimes()

	session := services.NewSession()
	controller := feed.NewChatFeedController(logs.GetLoggerFromLevel(slog.LevelDebug), store)
	svc := services.NewChatService(session, controller)
	t.Cleanup(svc.Leave)
	return svc, session, store, deliveries
}

func TestChatService_Post_Uses_Signed_In_Identity(t *testing.T) {
	req := require.New(t)
	svc, session, store, _ := newChatService(t)
	session.SignIn("alice@x.com", "token")
	req.NoError(svc.Join("general", feed.Callbacks{}))

	store.EXPECT().
		Append(gomock.Any(), domain.RoomID("general"), domain.Draft{Sender: "alice@x.com", Body: "hi"}).
		Return(nil).
		Times(1)

	req.NoError(svc.Post(context.Background(), "hi"))
}

func TestChatService_Post_Requires_Sign_In(t *testing.T) {
	req := require.New(t)
	svc, _, store, _ := newChatService(t)
	req.NoError(svc.Join("general", feed.Callbacks{}))
	store.EXPECT().Append(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	req.ErrorIs(svc.Post(context.Background(), "hi"), errors.ErrNotSignedIn)
}

func TestChatService_SignOut_Leaves_Room(t *testing.T) {
	req := require.New(t)
	svc, session, _, deliveries := newChatService(t)
	session.SignIn("alice@x.com", "token")

	updates := make(chan []domain.Message, 4)
	req.NoError(svc.Join("general", feed.Callbacks{OnUpdate: func(m []domain.Message) { updates <- m }}))

	req.NoError(svc.SignOut())
	_, signedIn := svc.Me()
	req.False(signedIn)

	// A delivery after sign out is never shown
	deliveries <- contract.Delivery{Records: []domain.Record{domain.NewRecord("a", "late", 1)}}
	time.Sleep(30 * time.Millisecond)
	req.Empty(updates)

	req.ErrorIs(svc.SignOut(), errors.ErrNotSignedIn)
}
