package server

import (
	"context"
	"flash-chat/auth"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	grpc2 "flash-chat/grpc"
	"flash-chat/services"
	"flash-chat/storage"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ChatStoreServer is the server API of flashchat.v1.ChatStore.
type ChatStoreServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Append(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Subscribe(*structpb.Struct, grpc.ServerStream) error
}

// StoreServer exposes a contract.MessageStore and the account service.
type StoreServer struct {
	store       contract.MessageStore
	authService services.IAuthService
	log         *slog.Logger
}

func NewStoreServer(log *slog.Logger, store contract.MessageStore, authService services.IAuthService) *StoreServer {
	return &StoreServer{store: store, authService: authService, log: log}
}

func (s *StoreServer) Register(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, grpc2.FieldEmail)
	token, err := s.authService.Register(email, stringField(req, grpc2.FieldPassword))
	if err != nil {
		s.log.Info("Registration refused", "email", email, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	s.log.Info("Account registered", "email", email)
	return sessionReply(email, token)
}

func (s *StoreServer) Login(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, grpc2.FieldEmail)
	token, err := s.authService.Login(email, stringField(req, grpc2.FieldPassword))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return sessionReply(email, token)
}

// Append writes one message on behalf of the authenticated caller.
// A caller can only post under its own identity.
func (s *StoreServer) Append(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no identity in context")
	}
	room := domain.RoomID(stringField(req, grpc2.FieldRoom))
	draft := domain.Draft{
		Sender: stringField(req, grpc2.FieldSender),
		Body:   stringField(req, grpc2.FieldBody),
	}
	if draft.Sender != identity.Email {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: %s cannot post as %q",
			errors.ErrPermissionDenied, identity.Email, draft.Sender))
	}
	if err := s.store.Append(ctx, room, draft); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

// Subscribe streams the room's full record set on every change until the
// client goes away. A store failure ends the stream; clients reconnect.
func (s *StoreServer) Subscribe(req *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()
	identity, _ := auth.IdentityFromContext(ctx)
	room := domain.RoomID(stringField(req, grpc2.FieldRoom))
	orderBy := stringField(req, grpc2.FieldOrderBy)
	if orderBy == "" {
		orderBy = domain.OrderBySentAt
	}

	deliveries, err := s.store.Subscribe(ctx, room, orderBy)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	s.log.Info("Subscriber connected", "room", room, "email", identity.Email)
	defer s.log.Info("Subscriber disconnected", "room", room, "email", identity.Email)

	for delivery := range deliveries {
		if delivery.Err != nil {
			s.log.Error("Store delivery failed", "room", room, "error", delivery.Err)
			return errors.MapToGRPCError(delivery.Err)
		}
		msg := &structpb.Struct{Fields: map[string]*structpb.Value{
			grpc2.FieldRecords: structpb.NewListValue(storage.ToListValue(delivery.Records)),
		}}
		if err := stream.SendMsg(msg); err != nil {
			s.log.Warn("Failed to push delivery", "room", room, "error", err)
			return err
		}
	}
	return ctx.Err()
}

func sessionReply(email string, token services.Token) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		grpc2.FieldEmail: structpb.NewStringValue(email),
		grpc2.FieldToken: structpb.NewStringValue(token.String()),
	}}, nil
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}
