package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"

	"textnest/domain"
	"textnest/infrastructure/ws"
	"textnest/projection"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"TEXTNEST_SERVER_ADDR,default=localhost:5000"`
	Username      string `env:"TEXTNEST_USERNAME,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the connection lifecycle: dial, register, then one goroutine
// printing pushed events while the main loop turns stdin lines into frames.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := fmt.Sprintf("ws://%s/ws", config.ServerAddress)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", url, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(ws.ClientFrame{Type: "register", Username: config.Username}); err != nil {
		return exitRuntime, fmt.Errorf("register failed: %w", err)
	}

	color.Cyan.Printf(">>> Connected to %s as %s (Ctrl+C to quit)\n", config.ServerAddress, config.Username)
	color.Gray.Println("    @user message | #groupId message | /join groupId")

	timeline := projection.NewTimeline(config.Username)
	go receive(conn, timeline)

	// Close the connection on Ctrl+C so both loops unblock.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		frame, err := parseLine(scanner.Text())
		if err != nil {
			color.Yellow.Println(err.Error())
			continue
		}
		if err := conn.WriteJSON(frame); err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("write failed: %w", err)
		}
	}
	return exitOK, nil
}

// receive prints every pushed frame and folds messages into the local timeline.
func receive(conn *websocket.Conn, timeline *projection.Timeline) {
	for {
		var frame ws.ServerFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch {
		case frame.Error != "":
			color.Red.Printf("!! %s\n", frame.Error)

		case frame.Message != nil:
			timeline.Observe(toMessage(*frame.Message))
			stamp := frame.Message.Timestamp.Format(time.TimeOnly)
			if frame.Message.IsGroup {
				name := frame.Message.Receiver
				if frame.Group != nil {
					name = frame.Group.GroupName
				}
				color.Green.Printf("[%s] (%s) %s: %s\n", stamp, name, frame.Message.Sender, frame.Message.Content)
			} else {
				color.Cyan.Printf("[%s] %s: %s\n", stamp, frame.Message.Sender, frame.Message.Content)
			}

		case frame.Group != nil:
			color.Magenta.Printf("** joined %s (%s)\n", frame.Group.GroupName, frame.Group.GroupID)
		}
	}
}

// parseLine maps one input line to a client frame.
func parseLine(line string) (ws.ClientFrame, error) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "@"):
		receiver, content, ok := strings.Cut(line[1:], " ")
		if !ok || content == "" {
			return ws.ClientFrame{}, fmt.Errorf("usage: @user message")
		}
		return ws.ClientFrame{Type: "send_personal", Receiver: receiver, Content: content}, nil

	case strings.HasPrefix(line, "#"):
		groupID, content, ok := strings.Cut(line[1:], " ")
		if !ok || content == "" {
			return ws.ClientFrame{}, fmt.Errorf("usage: #groupId message")
		}
		return ws.ClientFrame{Type: "send_group", GroupID: groupID, Content: content}, nil

	case strings.HasPrefix(line, "/join "):
		return ws.ClientFrame{Type: "join_group", GroupID: strings.TrimSpace(line[len("/join "):])}, nil

	default:
		return ws.ClientFrame{}, fmt.Errorf("unknown input, try @user, #groupId or /join groupId")
	}
}

func toMessage(payload ws.MessagePayload) domain.Message {
	kind := domain.KindPersonal
	if payload.IsGroup {
		kind = domain.KindGroup
	}
	id, err := uuid.Parse(payload.ID)
	if err != nil {
		id = uuid.New()
	}
	return domain.Message{
		ID:      id,
		Sender:  payload.Sender,
		Target:  payload.Receiver,
		Content: payload.Content,
		Kind:    kind,
		SentAt:  payload.Timestamp,
	}
}
