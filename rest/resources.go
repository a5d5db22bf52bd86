package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dgnsrekt/revoltkit/model"
)

// Typed convenience calls over SendRequest. These back the facade's
// cache-miss fallback.

func fetchAs[T any](ctx context.Context, c *HTTPClient, path string) (T, error) {
	var out T
	body, err := c.SendRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// FetchUser retrieves a user by id.
func (c *HTTPClient) FetchUser(ctx context.Context, id string) (model.User, error) {
	return fetchAs[model.User](ctx, c, "/users/"+id)
}

// FetchServer retrieves a server by id.
func (c *HTTPClient) FetchServer(ctx context.Context, id string) (model.Server, error) {
	return fetchAs[model.Server](ctx, c, "/servers/"+id)
}

// FetchChannel retrieves a channel by id.
func (c *HTTPClient) FetchChannel(ctx context.Context, id string) (model.Channel, error) {
	return fetchAs[model.Channel](ctx, c, "/channels/"+id)
}

// FetchMessage retrieves one message from a channel.
func (c *HTTPClient) FetchMessage(ctx context.Context, channelID, id string) (model.Message, error) {
	return fetchAs[model.Message](ctx, c, "/channels/"+channelID+"/messages/"+id)
}

type sendMessageRequest struct {
	Content string   `json:"content"`
	Nonce   string   `json:"nonce"`
	Replies []string `json:"replies,omitempty"`
}

// SendMessage posts a message to a channel. The nonce deduplicates
// retried sends server-side.
func (c *HTTPClient) SendMessage(ctx context.Context, channelID, content string, replies ...string) (model.Message, error) {
	req := sendMessageRequest{
		Content: content,
		Nonce:   uuid.NewString(),
		Replies: replies,
	}

	body, err := c.SendRequest(ctx, http.MethodPost, "/channels/"+channelID+"/messages", req)
	if err != nil {
		return model.Message{}, err
	}

	var msg model.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return model.Message{}, fmt.Errorf("decoding message: %w", err)
	}
	return msg, nil
}
