package e2e

import (
	"flash-chat/auth"
	grpc2 "flash-chat/grpc"
	"flash-chat/grpc/server"
	"flash-chat/repositories"
	"flash-chat/runtime"
	"flash-chat/services"
	"log/slog"
	"net"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/grpc"
)

// LocalServer is a store server on a loopback port, wired like the binary.
type LocalServer struct {
	Addr   string
	db     *badger.DB
	server *grpc.Server
}

func StartLocalServer(log *slog.Logger, dir string) (*LocalServer, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	issuer := auth.NewTokenIssuer("e2e-secret-0123456789", time.Hour)
	interceptor := auth.NewInterceptor(issuer, grpc2.PublicMethods...)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Unary),
		grpc.ChainStreamInterceptor(interceptor.Stream),
	)
	store := repositories.NewMessageRepository(db, log, runtime.NewRegistry(), 2000)
	authService := services.NewAuthService(repositories.NewUserRepository(db), issuer)
	server.RegisterChatStoreServer(s, server.NewStoreServer(log, store, authService))

	go func() { _ = s.Serve(listener) }()
	return &LocalServer{Addr: listener.Addr().String(), db: db, server: s}, nil
}

func (l *LocalServer) Stop() {
	l.server.Stop()
	_ = l.db.Close()
}
