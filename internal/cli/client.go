package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/debsndprgs5/transcendence-game/internal/protocol"
)

// wsClient is a thin wire-protocol client for manual testing
type wsClient struct {
	conn *websocket.Conn
}

// dial opens the websocket session, authenticating via headers
func dial(cfg Config) (*wsClient, error) {
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	header := http.Header{}
	header.Set("X-Player-ID", cfg.PlayerID)
	header.Set("X-Username", cfg.Username)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", u.String(), err)
	}
	return &wsClient{conn: conn}, nil
}

func (c *wsClient) close() {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

// send encodes and writes one message
func (c *wsClient) send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// stream prints every inbound frame as indented JSON until the
// connection drops or stopOn matches a frame's type.
func (c *wsClient) stream(stopOn ...protocol.Type) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var pretty map[string]any
		if err := json.Unmarshal(data, &pretty); err != nil {
			fmt.Println(string(data))
			continue
		}
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))

		if t, ok := pretty["type"].(string); ok {
			for _, stop := range stopOn {
				if protocol.Type(t) == stop {
					return nil
				}
			}
		}
	}
}

// getJSON fetches a REST endpoint and prints the response body
func getJSON(cfg Config, path string) error {
	resp, err := http.Get(strings.TrimSuffix(cfg.ServerURL, "/") + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
