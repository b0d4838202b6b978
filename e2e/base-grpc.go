package e2e

import (
	"context"
	"flash-chat/domain"
	"flash-chat/feed"
	"flash-chat/grpc/client"
	"flash-chat/services"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const Password = "ComplexPass123!"

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
	Log    *slog.Logger
	local  *LocalServer
	dir    string
}

// SetupSuite loads the environment configuration and starts a local server
// when no address is configured.
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.Log = logs.GetLoggerFromLevel(slog.LevelDebug)

	if s.Config.ServerAddr == "" {
		s.dir, err = os.MkdirTemp("", "flash-chat-e2e")
		s.Require().NoError(err)
		s.local, err = StartLocalServer(s.Log, s.dir)
		s.Require().NoError(err)
		s.Config.ServerAddr = s.local.Addr
	}
}

func (s *BaseGrpcSuite) TearDownSuite() {
	if s.local != nil {
		s.local.Stop()
		_ = os.RemoveAll(s.dir)
	}
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	// 2. Setup JSON marshaler for debugging protobuf messages
	marshaler := protojson.MarshalOptions{
		UseProtoNames:   true,
		Multiline:       true,
		EmitUnpopulated: true,
	}

	// 3. Create the client with interceptors for logging
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			stream, err := streamer(ctx, desc, cc, method, opts...)
			t.Logf("GRPC stream %s [%s]", method, status.Code(err))
			return stream, err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// WithAuth provides an account client within a contextual test step
func (s *BaseGrpcSuite) WithAuth(name string, fn func(ctx context.Context, client *client.AuthClient)) {
	conn := s.GrpcConn(s.T(), name, s.Config.ServerAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, client.NewAuthClient(conn))
}

// Participant is one signed-in user with a live feed of the suite's room.
type Participant struct {
	Email   string
	Chat    *services.ChatService
	Updates chan []domain.Message
	Errors  chan error
	conn    *grpc.ClientConn
}

// Join registers a fresh account, signs it in and activates its feed.
func (s *BaseGrpcSuite) Join(name string) *Participant {
	email := fmt.Sprintf("%s-%d@example.com", name, time.Now().UnixNano())
	var token services.Token
	s.WithAuth("Register "+name, func(ctx context.Context, authClient *client.AuthClient) {
		var err error
		token, err = authClient.Register(ctx, email, Password)
		s.Require().NoError(err)
	})

	conn := s.GrpcConn(s.T(), "Join "+name, s.Config.ServerAddr)
	session := services.NewSession()
	session.SignIn(email, token)
	store := client.NewRemoteStore(s.Log, conn, session, 100*time.Millisecond)
	chat := services.NewChatService(session, feed.NewChatFeedController(s.Log, store))

	p := &Participant{
		Email:   email,
		Chat:    chat,
		Updates: make(chan []domain.Message, 64),
		Errors:  make(chan error, 64),
		conn:    conn,
	}
	s.Require().NoError(chat.Join(domain.RoomID(s.Config.Room), feed.Callbacks{
		OnUpdate: func(messages []domain.Message) {
			select {
			case p.Updates <- messages:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case p.Errors <- err:
			default:
			}
		},
	}))
	return p
}

func (p *Participant) Close() {
	p.Chat.Leave()
	_ = p.conn.Close()
}

// AwaitBody waits for an update whose last message has body.
func (s *BaseGrpcSuite) AwaitBody(p *Participant, body string) []domain.Message {
	timeout := time.After(10 * time.Second)
	for {
		select {
		case messages := <-p.Updates:
			if len(messages) > 0 && messages[len(messages)-1].Body == body {
				return messages
			}
		case err := <-p.Errors:
			s.T().Logf("%s feed error: %v", p.Email, err)
		case <-timeout:
			s.FailNow("timed out waiting for message", "%s never saw %q", p.Email, body)
			return nil
		}
	}
}
