package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var username, path string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join the game channel and chat",
		Long: `Connect to the realtime game channel, authenticate with the saved
token, and relay chat between stdin and the room.

Input lines are sent as chat messages. Lines starting with / are
commands:
  /move <x> <y> <direction>   move your player
  /players                    request the online player list
  /state                      request the current game state
  /quit                       disconnect

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no token available: login first or pass --token")
			}
			return runChat(username, path, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&username, "user", "", "Username to join as (required)")
	cmd.Flags().StringVar(&path, "path", "/game", "Channel path on the server")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output frames as JSON lines")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// wireFrame mirrors the server's channel frame
type wireFrame struct {
	Type      string          `json:"type"`
	Sender    string          `json:"sender,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runChat(username, path string, jsonOutput bool) error {
	url := channelURL(cfg.ServerURL, path)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Authenticate via the in-channel JOIN handshake
	join := map[string]any{
		"type": "JOIN",
		"payload": map[string]string{
			"username": username,
			"token":    cfg.Token,
		},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("failed to send join: %w", err)
	}

	done := make(chan struct{})

	// Reader: print every frame the server sends
	go func() {
		defer close(done)
		for {
			var frame wireFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			printFrame(frame, jsonOutput)
		}
	}()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Writer: relay stdin lines as chat and slash commands as frames
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			if !jsonOutput {
				fmt.Println("Disconnected")
			}
			return nil
		case <-sigCh:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := sendLine(conn, username, line)
			if err != nil {
				return err
			}
			if quit {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				select {
				case <-done:
				case <-time.After(time.Second):
				}
				return nil
			}
		}
	}
}

// sendLine turns one stdin line into a channel frame. It reports
// whether the user asked to quit.
func sendLine(conn *websocket.Conn, username, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, "/") {
		frame := map[string]any{
			"type":    "CHAT",
			"payload": map[string]string{"message": line},
		}
		return false, conn.WriteJSON(frame)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true, nil
	case "/players":
		return false, conn.WriteJSON(map[string]any{"type": "GET_PLAYERS"})
	case "/state":
		return false, conn.WriteJSON(map[string]any{"type": "GET_STATE"})
	case "/move":
		if len(fields) != 4 {
			fmt.Println("usage: /move <x> <y> <direction>")
			return false, nil
		}
		x, errX := strconv.Atoi(fields[1])
		y, errY := strconv.Atoi(fields[2])
		if errX != nil || errY != nil {
			fmt.Println("usage: /move <x> <y> <direction>")
			return false, nil
		}
		frame := map[string]any{
			"type": "MOVE",
			"payload": map[string]any{
				"username":  username,
				"x":         x,
				"y":         y,
				"direction": strings.ToUpper(fields[3]),
			},
		}
		return false, conn.WriteJSON(frame)
	default:
		fmt.Printf("unknown command: %s\n", fields[0])
		return false, nil
	}
}

func printFrame(frame wireFrame, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(frame)
		fmt.Println(string(data))
		return
	}

	timestamp := time.UnixMilli(frame.Timestamp).Format("15:04:05")

	switch frame.Type {
	case "CHAT":
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(frame.Payload, &msg)
		fmt.Printf("[%s] %s: %s\n", timestamp, frame.Sender, msg.Message)
	case "ERROR":
		fmt.Printf("[%s] error: %s\n", timestamp, frame.Error)
	case "SYSTEM":
		var msg string
		_ = json.Unmarshal(frame.Payload, &msg)
		fmt.Printf("[%s] * %s\n", timestamp, msg)
	default:
		payload := string(frame.Payload)
		if len(payload) > 200 {
			payload = payload[:200] + "..."
		}
		fmt.Printf("[%s] %s %s\n", timestamp, frame.Type, payload)
	}
}

// channelURL converts the configured HTTP base URL into a websocket URL
func channelURL(serverURL, path string) string {
	base := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
