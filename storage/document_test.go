package storage

import (
	"flash-chat/domain"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestFromDocument_WrongTypeCountsAsAbsent(t *testing.T) {
	req := require.New(t)
	doc, err := structpb.NewStruct(map[string]any{
		FieldSender: "alice@x.com",
		FieldBody:   42.0,
		FieldSentAt: "yesterday",
	})
	req.NoError(err)

	record := FromDocument(doc)

	req.Equal(lo.ToPtr("alice@x.com"), record.Sender)
	req.Nil(record.Body)
	req.Nil(record.SentAt)
	_, ok := record.ToMessage()
	req.False(ok)
}

func TestListValue_KeepsPartialRecords(t *testing.T) {
	req := require.New(t)
	records := []domain.Record{
		domain.NewRecord("a", "hi", 1),
		{Sender: lo.ToPtr("b"), SentAt: lo.ToPtr(2.0)},
	}

	decoded := FromListValue(ToListValue(records))

	req.Equal(records, decoded)
	req.Len(domain.Materialize(decoded), 1)
}

func TestFromListValue_NonDocumentEntry(t *testing.T) {
	req := require.New(t)
	list := &structpb.ListValue{Values: []*structpb.Value{
		structpb.NewStringValue("not a document"),
		structpb.NewStructValue(ToDocument(domain.NewRecord("a", "hi", 1))),
	}}

	records := FromListValue(list)

	req.Len(records, 2)
	req.Equal(domain.Record{}, records[0])
	req.Len(domain.Materialize(records), 1)
}
