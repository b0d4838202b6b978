// Package storage converts chat records to and from the protobuf Struct
// documents kept on disk and sent over the wire.
package storage

import (
	"flash-chat/domain"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	FieldSender = "sender"
	FieldBody   = "body"
	FieldSentAt = "sentAt"
)

// ToDocument encodes a record; absent fields stay absent.
func ToDocument(record domain.Record) *structpb.Struct {
	fields := make(map[string]*structpb.Value, 3)
	if record.Sender != nil {
		fields[FieldSender] = structpb.NewStringValue(*record.Sender)
	}
	if record.Body != nil {
		fields[FieldBody] = structpb.NewStringValue(*record.Body)
	}
	if record.SentAt != nil {
		fields[FieldSentAt] = structpb.NewNumberValue(*record.SentAt)
	}
	return &structpb.Struct{Fields: fields}
}

// FromDocument decodes a record. A field of the wrong type counts as absent,
// which makes the record malformed for the feed.
func FromDocument(doc *structpb.Struct) domain.Record {
	var record domain.Record
	fields := doc.GetFields()
	if v, ok := fields[FieldSender].GetKind().(*structpb.Value_StringValue); ok {
		record.Sender = lo.ToPtr(v.StringValue)
	}
	if v, ok := fields[FieldBody].GetKind().(*structpb.Value_StringValue); ok {
		record.Body = lo.ToPtr(v.StringValue)
	}
	if v, ok := fields[FieldSentAt].GetKind().(*structpb.Value_NumberValue); ok {
		record.SentAt = lo.ToPtr(v.NumberValue)
	}
	return record
}

// ToListValue packs a whole delivery.
func ToListValue(records []domain.Record) *structpb.ListValue {
	return &structpb.ListValue{Values: lo.Map(records, func(r domain.Record, _ int) *structpb.Value {
		return structpb.NewStructValue(ToDocument(r))
	})}
}

// FromListValue unpacks a delivery. Entries that are not documents become
// empty records so they are dropped downstream instead of failing the batch.
func FromListValue(list *structpb.ListValue) []domain.Record {
	return lo.Map(list.GetValues(), func(v *structpb.Value, _ int) domain.Record {
		return FromDocument(v.GetStructValue())
	})
}
