// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog is the HTTP client for the remote article catalog API.
// Responses are validated and decoded into the canonical shapes of
// pkg/types at this boundary.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/article-catalog/internal/httputil"
	"github.com/pdiddy/article-catalog/pkg/types"
)

// ErrUnexpectedShape is returned when a response body does not match any
// shape the client knows how to decode.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned HTTP %d", e.Op, e.StatusCode)
}

const (
	cacheKeyFilterOptions    = "filter-options"
	cacheKeyPublicationTypes = "publication-types"
)

// Client talks to the catalog API.
type Client struct {
	baseURL string
	doer    *httputil.Doer
	cache   *cache.Cache
	log     *logrus.Entry
}

// New returns a client for cfg.BaseURL. Filter options and publication types
// are cached for cacheTTL.
func New(cfg types.APIConfig, cacheTTL time.Duration, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	doer := httputil.NewDoer(&http.Client{Timeout: timeout}, httputil.Options{
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		RateLimit:  cfg.RateLimit,
		Burst:      cfg.Burst,
	}, log)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		doer:    doer,
		cache:   cache.New(cacheTTL, 2*cacheTTL),
		log:     log,
	}
}

// Search runs POST /Article.
func (c *Client) Search(ctx context.Context, req types.SearchRequest) (types.SearchPage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.SearchPage{}, fmt.Errorf("encoding search request: %w", err)
	}

	var wire searchPageWire
	if err := c.do(ctx, "search articles", http.MethodPost, "/Article", body, &wire); err != nil {
		return types.SearchPage{}, err
	}
	return wire.canonical(c.log)
}

// Article runs GET /Article/{id}.
func (c *Client) Article(ctx context.Context, id string) (types.Article, error) {
	if id == "" {
		return types.Article{}, errors.New("article id is empty")
	}
	var wire articleWire
	if err := c.do(ctx, "load article", http.MethodGet, "/Article/"+url.PathEscape(id), nil, &wire); err != nil {
		return types.Article{}, err
	}
	return wire.canonical(), nil
}

// PublicationTypes runs GET /PublicationType. Results are cached.
func (c *Client) PublicationTypes(ctx context.Context) ([]types.PublicationType, error) {
	if v, ok := c.cache.Get(cacheKeyPublicationTypes); ok {
		return v.([]types.PublicationType), nil
	}

	var wire []publicationTypeWire
	if err := c.do(ctx, "load publication types", http.MethodGet, "/PublicationType", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]types.PublicationType, 0, len(wire))
	for _, w := range wire {
		out = append(out, types.PublicationType(w))
	}
	c.cache.SetDefault(cacheKeyPublicationTypes, out)
	return out, nil
}

// FilterOptions runs GET /Article/filter-options. Results are cached.
func (c *Client) FilterOptions(ctx context.Context) (types.FilterOptions, error) {
	if v, ok := c.cache.Get(cacheKeyFilterOptions); ok {
		return v.(types.FilterOptions), nil
	}

	var opts types.FilterOptions
	if err := c.do(ctx, "load filter options", http.MethodGet, "/Article/filter-options", nil, &opts); err != nil {
		return types.FilterOptions{}, err
	}
	c.cache.SetDefault(cacheKeyFilterOptions, opts)
	return opts, nil
}

// Author runs GET /Author/{id}.
func (c *Client) Author(ctx context.Context, id string) (types.Author, error) {
	var a types.Author
	if err := c.do(ctx, "load author", http.MethodGet, "/Author/"+url.PathEscape(id), nil, &a); err != nil {
		return types.Author{}, err
	}
	return a, nil
}

// AuthorPublications runs GET /Author/{id}/publications.
func (c *Client) AuthorPublications(ctx context.Context, id string, q types.PublicationQuery) (types.PublicationsPage, error) {
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("yearFrom", q.YearFrom)
	params.Set("yearTo", q.YearTo)
	if q.OnlyPDF {
		params.Set("onlyPdf", "true")
	} else {
		params.Set("onlyPdf", "")
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = types.PageSize
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(size))

	path := "/Author/" + url.PathEscape(id) + "/publications?" + params.Encode()
	var wire publicationsPageWire
	if err := c.do(ctx, "load publications", http.MethodGet, path, nil, &wire); err != nil {
		return types.PublicationsPage{}, err
	}
	return wire.canonical(), nil
}

// do sends one request and decodes a 200 response into out.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

// Describe turns err into a message fit for display. Empty or unknown
// errors fall back to fallback.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	switch {
	case errors.As(err, &se):
		if se.StatusCode == http.StatusNotFound {
			return "Not found"
		}
		return fmt.Sprintf("Server error (HTTP %d)", se.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	case errors.Is(err, ErrUnexpectedShape):
		return "The server sent a response this client does not understand"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
