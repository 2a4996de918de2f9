// Package googletasks reads open tasks from Google Tasks for import.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"youdo/internal/config"
	"youdo/internal/logging"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per request.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	// Scope is the OAuth scope requested by google-login. Import only
	// reads, but the token is also valid for the full Tasks API.
	Scope = tasks.TasksReadonlyScope
)

var (
	// ErrListNotFound is returned when no list has the requested name.
	ErrListNotFound = errors.New("list not found")

	// ErrAmbiguousList is returned when several lists share the name.
	ErrAmbiguousList = errors.New("ambiguous list name")

	// ErrTokenRevoked is returned when Google rejects the stored token.
	ErrTokenRevoked = errors.New("google token expired or revoked (run: youdo google-login)")
)

// Item is an open Google task.
type Item struct {
	Title string
	Notes string
	Due   *time.Time
}

// Client reads tasks through the Google Tasks API.
type Client struct {
	svc    *tasks.Service
	logger *slog.Logger
}

// New creates a client from the OAuth client credentials and the token
// saved by google-login in the config directory.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	tokenData, err := os.ReadFile(cfg.GoogleTokenPath())
	if err != nil {
		return nil, fmt.Errorf("not logged in to Google (run: youdo google-login): %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleTokenFile, err)
	}

	// Token source refreshes the access token as needed.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	return NewWithOptions(ctx, option.WithHTTPClient(httpClient))
}

// NewWithOptions creates a client with explicit API options (for testing).
func NewWithOptions(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Client{svc: svc, logger: logging.Discard()}, nil
}

// SetLogger sets the logger used for API tracing.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l.With("component", "googletasks")
	}
}

// LoadOAuthConfig reads the OAuth client credentials file.
func LoadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}
	return oauthConfig, nil
}

// ResolveList finds a list id by name (case-insensitive, trimmed).
// An empty name is the default list.
func (c *Client) ResolveList(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultListID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var matches []string
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if strings.EqualFold(strings.TrimSpace(list.Title), name) {
				matches = append(matches, list.Id)
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrListNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousList, name)
	}
}

// OpenTasks returns the open tasks of the named list in API order.
func (c *Client) OpenTasks(ctx context.Context, listName string) ([]Item, error) {
	listID, err := c.ResolveList(ctx, listName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var items []Item
	err = c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(false).
		ShowDeleted(false).
		ShowHidden(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				if strings.TrimSpace(t.Title) == "" {
					continue
				}
				items = append(items, Item{
					Title: t.Title,
					Notes: t.Notes,
					Due:   parseDue(t.Due),
				})
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	c.logger.Debug("fetched google tasks", "list", listID, "count", len(items))
	return items, nil
}

// parseDue drops unparseable dates; Google only stores the date part.
func parseDue(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// wrapError maps API errors to user-facing ones.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("google tasks request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrTokenRevoked
		case http.StatusNotFound:
			return ErrListNotFound
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return ErrTokenRevoked
	}
	return err
}
