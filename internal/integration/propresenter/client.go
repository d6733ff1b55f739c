// Package propresenter reads playlists from the presentation software's
// REST API.
package propresenter

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/zurielbm/pp2ot-bridge/pkg/httpjson"
)

// Identifier is the id triple the API attaches to playlists and items.
type Identifier struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// PlaylistInfo is one element of GET /playlists.
type PlaylistInfo struct {
	ID Identifier `json:"id"`
}

// Item is one cue in a playlist.
type Item struct {
	ID   Identifier `json:"id"`
	Type string     `json:"type"`
}

// Playlist is the document returned by GET /playlist/{name}.
type Playlist struct {
	ID    Identifier `json:"id"`
	Items []Item     `json:"items"`
}

// Client is a read-only source API client.
type Client struct {
	http *httpjson.Client
}

// NewClient returns a client for baseURL, e.g. http://host:1025/v1.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{http: httpjson.New(baseURL, timeout, httpjson.WithLogger(log))}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

// Playlists lists every playlist.
func (c *Client) Playlists(ctx context.Context) ([]PlaylistInfo, error) {
	var out []PlaylistInfo
	if err := c.http.Get(ctx, "/playlists", &out); err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	return out, nil
}

// Playlist fetches a playlist and its items by name.
func (c *Client) Playlist(ctx context.Context, name string) (Playlist, error) {
	var out Playlist
	if err := c.http.Get(ctx, "/playlist/"+url.PathEscape(name), &out); err != nil {
		return Playlist{}, fmt.Errorf("get playlist %q: %w", name, err)
	}
	return out, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Playlists(ctx)
	return err
}
