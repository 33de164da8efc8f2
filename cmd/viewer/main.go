// Command viewer inspects a room from the outside: it dumps the persisted
// message log from a read-only database handle, or tails a live room over
// websocket when an access token is provided.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"roomsync/domain"
	"roomsync/projection"
	"roomsync/ws"
)

type Config struct {
	Room string `envconfig:"VIEWER_ROOM" required:"true"`

	// Dump mode: read the database directly.
	BadgerFilepath string `envconfig:"BADGER_FILEPATH"`

	// Follow mode: tail the room through the server.
	ServerURL string `envconfig:"VIEWER_SERVER_URL"`
	Token     string `envconfig:"VIEWER_TOKEN"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	switch {
	case config.ServerURL != "" && config.Token != "":
		if err := follow(config); err != nil {
			log.Fatalf("Follow failed: %v", err)
		}
	case config.BadgerFilepath != "":
		if err := dump(config); err != nil {
			log.Fatalf("Dump failed: %v", err)
		}
	default:
		log.Fatal("Set BADGER_FILEPATH for a dump, or VIEWER_SERVER_URL and VIEWER_TOKEN to follow live")
	}
}

// storedMessage mirrors the repository's on-disk message shape closely
// enough for display. The viewer stays read-only and decodes values
// itself instead of linking the write path.
type storedMessage struct {
	ID         string `json:"id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	Lang       string `json:"lang"`
	At         int64  `json:"at"`
}

func dump(config Config) error {
	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	table := newTable()
	prefix := []byte(fmt.Sprintf("msg:%s:", config.Room))

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var m storedMessage
				if err := json.Unmarshal(v, &m); err != nil {
					fmt.Printf("Skipping unreadable key %s: %v\n", item.Key(), err)
					return nil
				}
				table.Append([]string{
					time.Unix(0, m.At).Format("15:04:05"),
					shortID(m.ID),
					m.SenderName,
					m.Lang,
					m.Content,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	color.Bold.Printf("Messages in room %s\n", config.Room)
	table.Render()
	return nil
}

func follow(config Config) error {
	base, err := url.Parse(config.ServerURL)
	if err != nil {
		return fmt.Errorf("parse server url: %w", err)
	}
	base.Path = "/ws"
	base.RawQuery = url.Values{"token": {config.Token}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(base.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", base.String(), err)
	}
	defer conn.Close()

	join, err := json.Marshal(ws.RoomPayload{RoomID: config.Room})
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(ws.Envelope{Type: ws.TypeJoinRoom, Payload: join}); err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	timeline := projection.NewTimeline(domain.RoomID(config.Room))
	color.Bold.Printf("Following room %s (Ctrl-C to stop)\n", config.Room)

	for {
		var env ws.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return nil // connection closed
		}
		if env.Type == ws.TypeError {
			var p struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(env.Payload, &p)
			color.Red.Printf("server error: %s\n", p.Message)
			continue
		}

		e, err := ws.DecodeEvent(env)
		if err != nil {
			color.Yellow.Printf("undecodable %s frame: %v\n", env.Type, err)
			continue
		}
		if e == nil {
			continue
		}
		timeline.Apply(e)
		render(timeline, env.Type)
	}
}

func render(timeline *projection.Timeline, frameType string) {
	names := lo.Map(timeline.Members(), func(u domain.User, _ int) string { return u.Name })
	typing := lo.Map(timeline.TypingUsers(), func(u domain.User, _ int) string { return u.Name })
	sort.Strings(typing)

	color.Gray.Printf("[%s] ", frameType)
	color.Cyan.Printf("members: %v", names)
	if len(typing) > 0 {
		color.Yellow.Printf("  typing: %v", typing)
	}
	fmt.Println()

	messages := timeline.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	fmt.Printf("  %s %s: %s (read by %d)\n",
		last.CreatedAt.Format("15:04:05"), last.SenderName, last.Content, len(last.ReadBy))
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "ID", "Sender", "Lang", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
