package e2e

import (
	"context"
	"flash-chat/domain"
	"flash-chat/errors"
	"flash-chat/grpc/client"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ChatScenarioSuite struct {
	BaseGrpcSuite
}

func TestChatScenarioSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e scenario skipped in short mode")
	}
	suite.Run(t, new(ChatScenarioSuite))
}

func (s *ChatScenarioSuite) Test_Conversation_Is_Shared_And_Ordered() {
	alice := s.Join("alice")
	defer alice.Close()
	bob := s.Join("bob")
	defer bob.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first := "hello from alice " + alice.Email
	s.Require().NoError(alice.Chat.Post(ctx, first))
	s.AwaitBody(alice, first)
	s.AwaitBody(bob, first)

	reply := "hi alice " + bob.Email
	s.Require().NoError(bob.Chat.Post(ctx, reply))
	messages := s.AwaitBody(alice, reply)

	bodies := lo.Map(messages, func(m domain.Message, _ int) string { return m.Body })
	s.Require().Less(lo.IndexOf(bodies, first), lo.IndexOf(bodies, reply))
	last := messages[len(messages)-1]
	s.Equal(bob.Email, last.Sender)
	s.True(lo.IsSortedByKey(messages, func(m domain.Message) int64 { return m.SentAt.UnixNano() }))
}

func (s *ChatScenarioSuite) Test_Blank_Message_Is_Not_Sent() {
	alice := s.Join("alice")
	defer alice.Close()

	err := alice.Chat.Post(context.Background(), "   \n")

	s.Require().ErrorIs(err, errors.ErrEmptyBody)
}

func (s *ChatScenarioSuite) Test_Login_With_Wrong_Password() {
	alice := s.Join("alice")
	defer alice.Close()

	s.WithAuth("Login with wrong password", func(ctx context.Context, authClient *client.AuthClient) {
		_, err := authClient.Login(ctx, alice.Email, "WrongPass123!")
		s.Require().ErrorIs(err, errors.ErrInvalidCredentials)

		token, err := authClient.Login(ctx, alice.Email, Password)
		s.Require().NoError(err)
		s.NotEmpty(token)
	})
}

func (s *ChatScenarioSuite) Test_Logout_Stops_Posting() {
	alice := s.Join("alice")
	defer alice.Close()

	s.Require().NoError(alice.Chat.SignOut())

	err := alice.Chat.Post(context.Background(), "after logout")
	s.Require().ErrorIs(err, errors.ErrNotSignedIn)
	_, signedIn := alice.Chat.Me()
	s.False(signedIn)
}
