package client

import (
	"context"
	"flash-chat/errors"
	grpc2 "flash-chat/grpc"
	"flash-chat/services"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthClient registers and signs in accounts on a remote ChatStore.
type AuthClient struct {
	conn grpc.ClientConnInterface
}

func NewAuthClient(conn grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{conn: conn}
}

func (c *AuthClient) Register(ctx context.Context, email, password string) (services.Token, error) {
	return c.call(ctx, grpc2.RegisterMethod, email, password)
}

func (c *AuthClient) Login(ctx context.Context, email, password string) (services.Token, error) {
	return c.call(ctx, grpc2.LoginMethod, email, password)
}

func (c *AuthClient) call(ctx context.Context, method, email, password string) (services.Token, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		grpc2.FieldEmail:    structpb.NewStringValue(email),
		grpc2.FieldPassword: structpb.NewStringValue(password),
	}}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return "", fromAuthError(err)
	}
	token := resp.GetFields()[grpc2.FieldToken].GetStringValue()
	if token == "" {
		return "", errors.ErrTokenGeneration
	}
	return services.Token(token), nil
}

func fromAuthError(err error) error {
	if s, ok := status.FromError(err); ok && s.Code() == codes.Unauthenticated {
		return fmt.Errorf("%w: %s", errors.ErrInvalidCredentials, s.Message())
	}
	return errors.FromGRPCError(err)
}
