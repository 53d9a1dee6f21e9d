package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vialac/vialac/internal/bridge"
)

// ErrRemote is returned when the remote host answered ok:false.
var ErrRemote = errors.New("remote host error")

// Client is a bridge.Host backed by a remote Server.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ bridge.Host = (*Client)(nil)

// NewClient targets baseURL. A nil hc uses http.DefaultClient; timeouts come
// from the caller's context.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) Dispatch(ctx context.Context, command string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(commandRequest{Comando: command, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/comando", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) AnimalSheet(ctx context.Context, caravana string) (map[string]any, error) {
	// A blank tag has no path segment to route on.
	if strings.TrimSpace(caravana) == "" {
		return c.Dispatch(ctx, bridge.CmdGetAnimal, map[string]any{"caravana": caravana})
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/animales/"+url.PathEscape(caravana), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (map[string]any, error) {
	if id := bridge.RequestID(req.Context()); id != "" {
		req.Header.Set(headerRequestID, id)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("host request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("host returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if !env.OK {
		msg := "unknown"
		if env.Error != nil {
			msg = env.Error.Code + ": " + env.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	if env.Data == nil {
		return map[string]any{}, nil
	}
	return env.Data, nil
}
