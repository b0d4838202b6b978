package client

import (
	"context"
	stderrors "errors"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	grpc2 "flash-chat/grpc"
	"flash-chat/runtime"
	"flash-chat/services"
	"flash-chat/storage"
	"fmt"
	"io"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// TokenSource hands out the bearer token of the signed-in user.
type TokenSource interface {
	Token() (services.Token, bool)
}

var subscribeStreamDesc = grpc.StreamDesc{
	StreamName:    "Subscribe",
	ServerStreams: true,
}

// RemoteStore is a contract.MessageStore served by a remote ChatStore.
type RemoteStore struct {
	conn            grpc.ClientConnInterface
	tokens          TokenSource
	log             *slog.Logger
	restartInterval time.Duration
}

func NewRemoteStore(log *slog.Logger, conn grpc.ClientConnInterface, tokens TokenSource, restartInterval time.Duration) *RemoteStore {
	return &RemoteStore{conn: conn, tokens: tokens, log: log, restartInterval: restartInterval}
}

func (r *RemoteStore) Append(ctx context.Context, room domain.RoomID, draft domain.Draft) error {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		grpc2.FieldRoom:   structpb.NewStringValue(room.String()),
		grpc2.FieldSender: structpb.NewStringValue(draft.Sender),
		grpc2.FieldBody:   structpb.NewStringValue(draft.Body),
	}}
	if err := r.conn.Invoke(r.authorize(ctx), grpc2.AppendMethod, req, &emptypb.Empty{}); err != nil {
		return errors.FromGRPCError(err)
	}
	return nil
}

// Subscribe keeps one server stream open for room. A broken stream is
// reported as a failed delivery and reopened after the restart interval.
// The channel is closed once ctx is done, or after a rejected request.
func (r *RemoteStore) Subscribe(ctx context.Context, room domain.RoomID, orderBy string) (<-chan contract.Delivery, error) {
	if orderBy != domain.OrderBySentAt {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedOrder, orderBy)
	}
	out := make(chan contract.Delivery)
	worker := &SubscriptionWorker{
		conn:    r.conn,
		room:    room,
		orderBy: orderBy,
		out:     out,
		store:   r,
		log:     r.log,
	}
	supervisor := runtime.NewSupervisor(r.log, r.restartInterval)
	supervisor.Add(worker)

	go func() {
		defer close(out)
		supervisor.Run(ctx)
	}()
	return out, nil
}

func (r *RemoteStore) authorize(ctx context.Context) context.Context {
	if r.tokens == nil {
		return ctx
	}
	token, ok := r.tokens.Token()
	if !ok {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token.String())
}

// SubscriptionWorker pumps one Subscribe stream into the delivery channel.
type SubscriptionWorker struct {
	conn    grpc.ClientConnInterface
	room    domain.RoomID
	orderBy string
	out     chan<- contract.Delivery
	store   *RemoteStore
	log     *slog.Logger
}

func (w *SubscriptionWorker) Run(ctx context.Context) error {
	stream, err := w.conn.NewStream(w.store.authorize(ctx), &subscribeStreamDesc, grpc2.SubscribeMethod)
	if err != nil {
		return w.fail(ctx, err)
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		grpc2.FieldRoom:    structpb.NewStringValue(w.room.String()),
		grpc2.FieldOrderBy: structpb.NewStringValue(w.orderBy),
	}}
	if err := stream.SendMsg(req); err != nil {
		return w.fail(ctx, err)
	}
	if err := stream.CloseSend(); err != nil {
		return w.fail(ctx, err)
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if err == io.EOF {
				err = fmt.Errorf("%w: stream ended", errors.ErrUnavailable)
			}
			return w.fail(ctx, err)
		}
		w.push(ctx, toDelivery(msg))
	}
}

// fail reports err to the subscriber and hands it to the supervisor for a
// restart. Nothing is reported once ctx is done.
// A rejected request is reported once and the worker ends: resubscribing
// with the same room would be rejected again.
func (w *SubscriptionWorker) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	err = errors.FromGRPCError(err)
	w.log.Warn("Subscription stream failed", "room", w.room, "error", err)
	w.push(ctx, contract.Delivery{Err: err})
	if stderrors.Is(err, errors.ErrInvalidArgument) {
		return nil
	}
	return err
}

func (w *SubscriptionWorker) push(ctx context.Context, d contract.Delivery) {
	select {
	case <-ctx.Done():
	case w.out <- d:
	}
}

func toDelivery(msg *structpb.Struct) contract.Delivery {
	value, ok := msg.GetFields()[grpc2.FieldRecords]
	if !ok || value.GetListValue() == nil {
		return contract.Delivery{Err: fmt.Errorf("%w: no records list", errors.ErrMalformedDelivery)}
	}
	return contract.Delivery{Records: storage.FromListValue(value.GetListValue())}
}
