// chattester is a terminal client for the ask endpoint: it holds one live
// session, sends each stdin line as a question and prints the tutor's reply.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eduline/eduline/internal/client"
	"github.com/eduline/eduline/internal/model/chat"
	"github.com/eduline/eduline/internal/protocol"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file, using system environment")
	}

	url := flag.String("url", "ws://localhost:8080/api/ask", "ask endpoint URL")
	timeout := flag.Duration("timeout", 60*time.Second, "per-question reply timeout")
	flag.Parse()

	chatSM := client.NewChat(nil)
	events := make(chan struct{}, 1)
	notify := func() {
		select {
		case events <- struct{}{}:
		default:
		}
	}

	gone := make(chan struct{})
	dialCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	conn, err := client.Dial(dialCtx, *url,
		func(reply protocol.Reply) {
			chatSM.HandleFrame(reply)
			notify()
		},
		func(err error) {
			if err != nil {
				chatSM.Fail(fmt.Sprintf("connection lost: %v", err))
			}
			notify()
			close(gone)
		},
	)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("failed to connect")
	}
	defer conn.Close()

	chatSM.SetSender(conn)

	fmt.Println("connected - type a question, /clear to reset, /quit to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for prompt(); scanner.Scan(); prompt() {
		line := scanner.Text()
		switch line {
		case "/quit":
			return
		case "/clear":
			chatSM.Clear()
			fmt.Println("(log cleared)")
			continue
		}

		if err := chatSM.Submit(line); err != nil {
			if errors.Is(err, client.ErrEmptyInput) {
				continue
			}
			fmt.Printf("! %v\n", err)
			continue
		}

		if !awaitReply(chatSM, events, gone, *timeout) {
			fmt.Println("! timed out waiting for a reply")
			continue
		}

		state := chatSM.Snapshot()
		if state.LastError != "" {
			fmt.Printf("! %s\n", state.LastError)
			continue
		}
		if len(state.Messages) > 0 {
			if last := state.Messages[len(state.Messages)-1]; last.Sender == chat.SenderAI {
				fmt.Printf("tutor: %s\n", last.Content)
			}
		}

		select {
		case <-gone:
			fmt.Println("connection closed")
			return
		default:
		}
	}
}

// awaitReply blocks until the pending question resolved, the connection
// died, or the timeout elapsed.
func awaitReply(chatSM *client.Chat, events chan struct{}, gone chan struct{}, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if state := chatSM.Snapshot(); !state.Pending {
			return true
		}
		select {
		case <-events:
		case <-gone:
			return true
		case <-deadline.C:
			return false
		}
	}
}

func prompt() {
	fmt.Print("> ")
}
