package repositories

import (
	"context"
	"flash-chat/contract"
	"flash-chat/domain"
	"flash-chat/errors"
	"flash-chat/runtime"
	"flash-chat/storage"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MessageRepository is the BadgerDB implementation of contract.MessageStore.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	registry      *runtime.Registry
	maxBodyLength int
	now           func() time.Time
}

var _ contract.MessageStore = MessageRepository{}

// NewMessageRepository builds the store. A maxBodyLength of zero disables the
// body quota.
func NewMessageRepository(db *badger.DB, log *slog.Logger, registry *runtime.Registry, maxBodyLength int) MessageRepository {
	return MessageRepository{db: db, log: log, registry: registry, maxBodyLength: maxBodyLength, now: time.Now}
}

// WithClock replaces the server clock stamping sentAt.
func (m MessageRepository) WithClock(now func() time.Time) MessageRepository {
	m.now = now
	return m
}

func roomPrefix(room domain.RoomID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", room))
}

func validateRoom(room domain.RoomID) error {
	if room == "" || strings.Contains(string(room), ":") {
		return fmt.Errorf("%w: %q", errors.ErrInvalidRoom, room)
	}
	return nil
}

// Append persists a message in BadgerDB and wakes the room's subscribers.
// The key is formatted as "msg:{room}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// sentAt is taken from the server clock at write time, never from the sender.
func (m MessageRepository) Append(ctx context.Context, room domain.RoomID, draft domain.Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateRoom(room); err != nil {
		return err
	}
	if draft.Sender == "" {
		return errors.ErrEmptySender
	}
	if strings.TrimSpace(draft.Body) == "" {
		return errors.ErrEmptyBody
	}
	if length := utf8.RuneCountInString(draft.Body); m.maxBodyLength > 0 && length > m.maxBodyLength {
		return fmt.Errorf("%w: body has %d characters, limit is %d",
			errors.ErrQuotaExceeded, length, m.maxBodyLength)
	}

	at := m.now().UTC()
	key := fmt.Sprintf("%s%019d:%s", roomPrefix(room), at.UnixNano(), uuid.New())
	record := domain.NewRecord(draft.Sender, draft.Body, domain.TimeToSeconds(at))
	bytes, err := proto.Marshal(storage.ToDocument(record))
	if err != nil {
		return err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}
	m.registry.Notify(room)
	return nil
}

// GetMessages returns the whole room history using a prefix scan.
// Thanks to the padded timestamp in the key, records come out in send order.
// A value that cannot be decoded is kept as an empty record so the feed
// drops it without losing the rest of the room.
func (m MessageRepository) GetMessages(room domain.RoomID) ([]domain.Record, error) {
	if err := validateRoom(room); err != nil {
		return nil, err
	}
	var records []domain.Record
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := roomPrefix(room)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var doc structpb.Struct
				if err := proto.Unmarshal(value, &doc); err != nil {
					m.log.Warn("Undecodable message skipped", "key", string(item.Key()), "error", err)
					records = append(records, domain.Record{})
					return nil
				}
				records = append(records, storage.FromDocument(&doc))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	}
	return records, nil
}

// Subscribe watches a room. The watcher is registered before the first scan,
// so a write landing between the two still triggers a rescan.
func (m MessageRepository) Subscribe(ctx context.Context, room domain.RoomID, orderBy string) (<-chan contract.Delivery, error) {
	if orderBy != domain.OrderBySentAt {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedOrder, orderBy)
	}
	if err := validateRoom(room); err != nil {
		return nil, err
	}

	notify := make(chan struct{}, 1)
	notify <- struct{}{}
	id := m.registry.Subscribe(room, notify)
	deliveries := make(chan contract.Delivery)

	go func() {
		defer close(deliveries)
		defer m.registry.Unsubscribe(room, id)
		for {
			select {
			case <-ctx.Done():
				return
			case <-notify:
			}
			records, err := m.GetMessages(room)
			delivery := contract.Delivery{Records: records, Err: err}
			select {
			case <-ctx.Done():
				return
			case deliveries <- delivery:
			}
			m.log.Debug("Room delivered", "room", room, "records", len(records))
		}
	}()
	return deliveries, nil
}

// CountMessages is used by the inspect tool.
func (m MessageRepository) CountMessages(room domain.RoomID) (int, error) {
	records, err := m.GetMessages(room)
	if err != nil {
		return 0, err
	}
	return len(lo.Filter(records, func(r domain.Record, _ int) bool {
		_, ok := r.ToMessage()
		return ok
	})), nil
}
