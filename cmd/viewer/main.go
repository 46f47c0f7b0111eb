// Command viewer opens the message store read-only and prints the inbox log
// as a table. Handy for checking what the relay actually persisted without
// stopping the server.
package main

import (
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
}

type inboxRow struct {
	Sender  string `json:"sender"`
	Target  string `json:"receiver"`
	Content string `json:"content"`
	IsGroup bool   `json:"is_group"`
	SentAt  int64  `json:"timestamp"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard lets the viewer open the store while the relay holds it
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	color.Cyan.Println("textnest message log")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Inbox", "Sender", "Receiver", "Kind", "Content", "Sent At"})

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("inbox:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key())

			var row inboxRow
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				return err
			}

			kind := "personal"
			if row.IsGroup {
				kind = "group"
			}
			table.Append([]string{
				inboxParty(key),
				row.Sender,
				row.Target,
				kind,
				row.Content,
				time.Unix(0, row.SentAt).UTC().Format(time.RFC3339),
			})
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	table.Render()
}

// inboxParty extracts the party segment from "inbox:{party}:{ts}:{uuid}".
// Usernames are alphanumeric and group ids are uuids, so the first colon after
// the prefix always closes the party.
func inboxParty(key string) string {
	rest := strings.TrimPrefix(key, "inbox:")
	return strings.SplitN(rest, ":", 2)[0]
}
