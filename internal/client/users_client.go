package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/octobees/user-directory/api/internal/entity"
)

// UsersFetcher retrieves the full user collection.
type UsersFetcher interface {
	FetchUsers(ctx context.Context) ([]entity.User, error)
}

// StatusError reports a non-success HTTP status returned by the users endpoint.
type StatusError struct {
	Code   int
	Detail string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// UsersClient issues GET requests against a fixed users endpoint.
type UsersClient struct {
	client   *http.Client
	endpoint string
}

// NewUsersClient builds a users client. A nil client falls back to one with a 15s timeout.
func NewUsersClient(client *http.Client, endpoint string) *UsersClient {
	if endpoint == "" {
		panic("users endpoint must not be empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &UsersClient{client: client, endpoint: strings.TrimSpace(endpoint)}
}

// FetchUsers performs a single GET and decodes the JSON array of users.
func (c *UsersClient) FetchUsers(ctx context.Context) ([]entity.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create users request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: extractError(resp.Body)}
	}

	var users []entity.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("could not decode users response: empty body")
		}
		return nil, fmt.Errorf("could not decode users response: %w", err)
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

func extractError(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

var _ UsersFetcher = (*UsersClient)(nil)
