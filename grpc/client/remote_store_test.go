package client

import (
	"context"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// refusingConn fails every stream with the given status code.
type refusingConn struct {
	code    codes.Code
	streams atomic.Int32
}

func (c *refusingConn) Invoke(context.Context, string, any, any, ...grpc.CallOption) error {
	return status.Error(c.code, "refused")
}

func (c *refusingConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	c.streams.Add(1)
	return nil, status.Error(c.code, "refused")
}

func TestToDelivery_WithoutRecordsList(t *testing.T) {
	req := require.New(t)

	for _, msg := range []*structpb.Struct{
		{},
		{Fields: map[string]*structpb.Value{"records": structpb.NewStringValue("nope")}},
	} {
		d := toDelivery(msg)
		req.ErrorIs(d.Err, errors.ErrMalformedDelivery)
		req.Equal(errors.KindMalformedRecord, errors.Classify(d.Err))
		req.Empty(d.Records)
	}
}

func TestToDelivery_EmptyRecordsList(t *testing.T) {
	req := require.New(t)
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"records": structpb.NewListValue(&structpb.ListValue{}),
	}}

	d := toDelivery(msg)

	req.NoError(d.Err)
	req.Empty(d.Records)
}

func receiveAll(t *testing.T, deliveries <-chan contract.Delivery) []contract.Delivery {
	t.Helper()
	var all []contract.Delivery
	timeout := time.After(3 * time.Second)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return all
			}
			all = append(all, d)
		case <-timeout:
			require.FailNow(t, "subscription still open")
			return nil
		}
	}
}

func TestSubscribe_InvalidArgument_IsNotRetried(t *testing.T) {
	req := require.New(t)
	conn := &refusingConn{code: codes.InvalidArgument}
	store := NewRemoteStore(logs.GetLoggerFromLevel(slog.LevelDebug), conn, nil, 5*time.Millisecond)

	deliveries, err := store.Subscribe(context.Background(), "general", domain.OrderBySentAt)
	req.NoError(err)

	all := receiveAll(t, deliveries)
	req.Len(all, 1)
	req.ErrorIs(all[0].Err, errors.ErrInvalidArgument)
	req.Equal(int32(1), conn.streams.Load())
}

func TestSubscribe_Unavailable_IsRetried(t *testing.T) {
	req := require.New(t)
	conn := &refusingConn{code: codes.Unavailable}
	store := NewRemoteStore(logs.GetLoggerFromLevel(slog.LevelDebug), conn, nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	deliveries, err := store.Subscribe(ctx, "general", domain.OrderBySentAt)
	req.NoError(err)

	for range 2 {
		select {
		case d := <-deliveries:
			req.ErrorIs(d.Err, errors.ErrUnavailable)
		case <-time.After(3 * time.Second):
			req.FailNow("no retry")
		}
	}
	cancel()
	receiveAll(t, deliveries)
	req.GreaterOrEqual(conn.streams.Load(), int32(2))
}
