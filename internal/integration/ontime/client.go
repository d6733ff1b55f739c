package ontime

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

// Client reads the current rundown and creates entries in it.
type Client struct {
	http *httpjson.Client
}

// NewClient returns a client for baseURL, e.g. http://host:4001/data.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{http: httpjson.New(baseURL, timeout, httpjson.WithLogger(log))}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// CurrentRundown fetches the loaded rundown.
func (c *Client) CurrentRundown(ctx context.Context) (Rundown, error) {
	var r Rundown
	if err := c.http.Get(ctx, "/rundowns/current", &r); err != nil {
		return Rundown{}, fmt.Errorf("get current rundown: %w", err)
	}
	if r.Entries == nil {
		r.Entries = map[string]Entry{}
	}
	return r, nil
}

// CreateEntry posts a new entry to rundownID and returns its assigned id.
func (c *Client) CreateEntry(ctx context.Context, rundownID string, entry CreateEntry) (Created, error) {
	var created Created
	path := "/rundowns/" + url.PathEscape(rundownID) + "/entry"
	if err := c.http.Post(ctx, path, entry, &created); err != nil {
		return Created{}, fmt.Errorf("create %s %q: %w", entry.Type, entry.Title, err)
	}
	if created.ID == "" {
		return Created{}, fmt.Errorf("create %s %q: %w", entry.Type, entry.Title,
			&httpjson.ParseError{URL: c.BaseURL() + path, Err: fmt.Errorf("response has no id")})
	}
	return created, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.CurrentRundown(ctx)
	return err
}
