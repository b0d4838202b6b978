package internal

import (
	"context"
	"errors"
	"flash-chat/storage"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultPrefix = "msg:"

var inspectTemplate = template.Must(template.New("inspect").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>flash-chat inspector</title></head>
<body>
<form method="get"><input name="prefix" value="{{.Prefix}}"><button>Scan</button></form>
<p>{{len .Items}} entries</p>
<table border="1" cellpadding="4">
<tr><th>Room</th><th>Time</th><th>ID</th><th>Sender</th><th>Detail</th></tr>
{{range .Items}}<tr title="{{.Key}}"><td>{{.Room}}</td><td>{{.Timestamp}}</td><td>{{.EntityID}}</td><td>{{.Sender}}</td><td>{{.Detail}}</td></tr>
{{end}}</table>
</body>
</html>`))

type InspectRow struct {
	Key       string
	Room      string
	Timestamp string
	EntityID  string
	Sender    string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow

type PageData struct {
	Prefix string
	Items  []InspectRow
}

// Inspector serves a read-only HTML view of the Badger keyspace.
type Inspector struct {
	db       *badger.DB
	mapper   RowMapper
	endpoint string
}

func NewInspector(db *badger.DB, endpoint string, mapper RowMapper) *Inspector {
	if mapper == nil {
		mapper = MessageMapper
	}
	return &Inspector{db: db, mapper: mapper, endpoint: endpoint}
}

func (i *Inspector) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(i.endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultPrefix
		}
		data := PageData{Prefix: prefix}

		err := i.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, i.mapper(string(item.KeyCopy(nil)), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTemplate.Execute(w, data)
	})
	return mux
}

// Serve listens on port until ctx is done.
func (i *Inspector) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           i.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("inspector: %w", err)
	}
	return nil
}

// DefaultMapper reads the room, time and id out of a msg:{room}:{nanos}:{id} key.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Room:      "-",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) >= 4 {
		row.Room = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("2006-01-02 15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	}
	return row
}

// MessageMapper also decodes the stored message document.
func MessageMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)

	var doc structpb.Struct
	if err := proto.Unmarshal(val, &doc); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	record := storage.FromDocument(&doc)
	if record.Sender != nil {
		row.Sender = *record.Sender
	}
	if record.Body != nil {
		row.Detail = *record.Body
	} else {
		row.Detail = "(no body)"
	}
	return row
}
