package users

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"
)

// HTTPDirectory looks principals up in the user service over HTTP.
type HTTPDirectory struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPDirectory builds a directory for baseURL, e.g. "http://localhost:8080/users".
func NewHTTPDirectory(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPDirectory{client: client, logger: logger}
}

// Exists reports true on 200, false on 404 and an error for anything else.
func (d *HTTPDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetPathParam("id", userID).
		Get("/{id}")
	if err != nil {
		return false, fmt.Errorf("error making request to user API: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		d.logger.Debug("user not found", zap.String("user_id", userID))
		return false, nil
	default:
		return false, fmt.Errorf("user API returned unexpected status: %d", resp.StatusCode())
	}
}

func (d *HTTPDirectory) Close() error {
	return d.client.Close()
}

// StaticDirectory is a fixed set of known principal ids.
type StaticDirectory struct {
	ids map[string]struct{}
}

func NewStaticDirectory(ids ...string) *StaticDirectory {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			m[id] = struct{}{}
		}
	}
	return &StaticDirectory{ids: m}
}

func (d *StaticDirectory) Exists(_ context.Context, userID string) (bool, error) {
	_, ok := d.ids[userID]
	return ok, nil
}
