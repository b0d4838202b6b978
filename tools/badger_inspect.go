package main

import (
	"flag"
	"flash-chat/domain"
	"flash-chat/internal"
	"flash-chat/repositories"
	"flash-chat/runtime"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	room := flag.String("room", "", "Room to dump (all rooms when empty)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	prefix := "msg:"
	if *room != "" {
		prefix = fmt.Sprintf("msg:%s:", *room)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Room", "Sent At", "ID", "Sender", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	total := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			if err := item.Value(func(v []byte) error {
				row := internal.MessageMapper(key, v)
				table.Append([]string{row.Room, row.Timestamp, row.EntityID, row.Sender, row.Detail})
				total++
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning Badger: ", err)
	}
	table.Render()

	if *room != "" {
		repository := repositories.NewMessageRepository(db, logs.GetLoggerFromString("ERROR"), runtime.NewRegistry(), 0)
		valid, err := repository.CountMessages(domain.RoomID(*room))
		if err != nil {
			log.Fatal("Error while counting messages: ", err)
		}
		fmt.Printf("\n%d documents, %d displayable messages in %q\n", total, valid, *room)
		return
	}
	fmt.Printf("\n%d documents\n", total)
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
