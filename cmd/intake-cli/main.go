// Package main provides a terminal client for the intake WebSocket endpoint.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/medintake/internal/transport/ws"
)

// Client represents a WebSocket client.
type Client struct {
	conn *websocket.Conn
	name string
	done chan struct{}
	once sync.Once
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, name string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		name: name,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = c.conn.Close()
	})
	return err
}

// Send sends a frame of the given type.
func (c *Client) Send(frameType, message string) error {
	return c.conn.WriteJSON(ws.ClientFrame{
		Type:      frameType,
		RequestID: "req_" + uuid.New().String()[:8],
		Name:      c.name,
		Message:   message,
	})
}

// ReadMessages reads and prints frames from the server.
func (c *Client) ReadMessages() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
			}
			return
		}

		var frame ws.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("Unmarshal error: %v", err)
			continue
		}
		printFrame(frame)
	}
}

func printFrame(frame ws.ServerFrame) {
	switch frame.Type {
	case ws.TypeReply:
		fmt.Printf("\nDoctor: %s\n", frame.Reply)
		if frame.Finished {
			fmt.Println("(conversation finished, /reset to start over)")
		}
	case ws.TypeInfoResp:
		formatted, _ := json.MarshalIndent(frame.Info, "", "  ")
		fmt.Printf("\n[info]\n%s\n", formatted)
	case ws.TypeResetAck:
		fmt.Printf("\n[reset] %s\n", frame.Message)
	case ws.TypeError:
		fmt.Printf("\n[error %s] %s\n", frame.Code, frame.Message)
	default:
		fmt.Printf("\n[%s] unexpected frame\n", frame.Type)
	}
	fmt.Print("> ")
}

func main() {
	addr := flag.String("addr", "ws://localhost:5000/api/chatBot/ws", "WebSocket server address")
	name := flag.String("name", "", "User name, the server default when empty")
	flag.Parse()

	log.SetFlags(log.Ltime)

	fmt.Printf("Connecting to %s...\n", *addr)

	client, err := NewClient(*addr, *name)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	fmt.Println("Connected.")
	fmt.Println("\nType a message and press Enter to send.")
	fmt.Println("Commands: /info, /reset, /quit")

	go client.ReadMessages()

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		client.Close()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())

		var sendErr error
		switch input {
		case "":
			fmt.Print("> ")
			continue
		case "/quit":
			fmt.Println("Bye!")
			return
		case "/info":
			sendErr = client.Send(ws.TypeInfo, "")
		case "/reset":
			sendErr = client.Send(ws.TypeReset, "")
		default:
			sendErr = client.Send(ws.TypeChat, input)
		}
		if sendErr != nil {
			log.Printf("Send error: %v", sendErr)
		}
	}
}
