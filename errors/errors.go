package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrAlreadyActive    = fmt.Errorf("feed is already active")
	ErrNotActive        = fmt.Errorf("feed is not active")
	ErrEmptyBody        = fmt.Errorf("message body is empty")
	ErrEmptySender      = fmt.Errorf("message sender is empty")
	ErrUnsupportedOrder = fmt.Errorf("unsupported order field")
	ErrInvalidRoom      = fmt.Errorf("invalid room")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")

	ErrPermissionDenied  = fmt.Errorf("permission denied")
	ErrQuotaExceeded     = fmt.Errorf("quota exceeded")
	ErrUnavailable       = fmt.Errorf("store unavailable")
	ErrMalformedDelivery = fmt.Errorf("malformed delivery")

	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrMalformedHash      = fmt.Errorf("malformed password hash")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrNotSignedIn        = fmt.Errorf("no user signed in")
)

// Kind classifies store failures as seen by the feed.
type Kind int

const (
	KindTransport Kind = iota
	KindPermission
	KindQuota
	KindMalformedRecord
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindQuota:
		return "quota"
	case KindMalformedRecord:
		return "malformed record"
	default:
		return "transport"
	}
}

// SubscriptionError is reported through the feed's error callback.
// It never tears down the feed state.
type SubscriptionError struct {
	Kind  Kind
	Cause error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s error: %v", e.Kind, e.Cause)
}

func (e *SubscriptionError) Unwrap() error { return e.Cause }

// SendError is returned when the store refused or failed a write.
type SendError struct {
	Kind  Kind
	Cause error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s error: %v", e.Kind, e.Cause)
}

func (e *SendError) Unwrap() error { return e.Cause }

// Classify maps a store error to its Kind.
// Domain sentinels win over gRPC status codes, anything unknown is transport.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuota
	case errors.Is(err, ErrMalformedDelivery):
		return KindMalformedRecord
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.PermissionDenied, codes.Unauthenticated:
			return KindPermission
		case codes.ResourceExhausted:
			return KindQuota
		case codes.DataLoss:
			return KindMalformedRecord
		}
	}
	return KindTransport
}

func NewSubscriptionError(err error) *SubscriptionError {
	return &SubscriptionError{Kind: Classify(err), Cause: err}
}

func NewSendError(err error) *SendError {
	k := Classify(err)
	if k == KindMalformedRecord {
		k = KindTransport
	}
	return &SendError{Kind: k, Cause: err}
}

// MapToGRPCError converts domain errors into gRPC status errors at the transport edge.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrEmptySender),
		errors.Is(err, ErrInvalidRoom), errors.Is(err, ErrUnsupportedOrder),
		errors.Is(err, ErrInvalidPassword):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrNotSignedIn):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrQuotaExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, ErrUserAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrMalformedDelivery):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromGRPCError restores the domain sentinel behind a gRPC status, keeping the
// status message for context. InvalidArgument comes back as ErrInvalidArgument:
// the same request will never succeed.
func FromGRPCError(err error) error {
	s, ok := status.FromError(err)
	if !ok || err == nil {
		return err
	}
	var sentinel error
	switch s.Code() {
	case codes.PermissionDenied, codes.Unauthenticated:
		sentinel = ErrPermissionDenied
	case codes.ResourceExhausted:
		sentinel = ErrQuotaExceeded
	case codes.AlreadyExists:
		sentinel = ErrUserAlreadyExists
	case codes.DataLoss:
		sentinel = ErrMalformedDelivery
	case codes.InvalidArgument:
		sentinel = ErrInvalidArgument
	case codes.Canceled:
		return context.Canceled
	default:
		sentinel = ErrUnavailable
	}
	return fmt.Errorf("%w: %s", sentinel, s.Message())
}
