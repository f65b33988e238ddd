package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/studycast/internal/models"
)

// ownerHeader carries the caller identity; the server defaults it to the local owner.
const ownerHeader = "X-User-ID"

// apiClient talks to a running studycast server so CLI commands avoid
// opening the SQLite database and Bleve index the server holds.
type apiClient struct {
	baseURL string
	owner   string
	http    *http.Client
}

func newAPIClient(baseURL, owner string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.owner != "" {
		req.Header.Set(ownerHeader, c.owner)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}
	return resp, nil
}

func (c *apiClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError maps an error body back onto the sentinel errors the server maps from.
func responseError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	var kind error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = models.ErrInput
	case http.StatusUnauthorized:
		kind = models.ErrUnauthorized
	case http.StatusNotFound:
		kind = models.ErrNotFound
	case http.StatusConflict:
		kind = models.ErrNotReady
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", kind, msg)
}

func (c *apiClient) ImportDocument(ctx context.Context, input *models.DocumentInput) (*documentInfo, error) {
	var out documentInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/documents", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateSummary, error) {
	var out models.GenerateSummary
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/podcasts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Search(ctx context.Context, podcastID, query string) (*models.SearchResponse, error) {
	var out models.SearchResponse
	path := "/api/v1/podcasts/" + url.PathEscape(podcastID) + "/search"
	if err := c.doJSON(ctx, http.MethodPost, path, models.SearchQuery{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) SearchTranscript(ctx context.Context, podcastID, query string, limit int) (*models.TranscriptResponse, error) {
	v := url.Values{}
	v.Set("q", query)
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out models.TranscriptResponse
	path := "/api/v1/podcasts/" + url.PathEscape(podcastID) + "/transcript/search?" + v.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Status(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download streams a packaged podcast to w and returns the server-chosen file name.
func (c *apiClient) Download(ctx context.Context, podcastID, format string, w io.Writer) (string, error) {
	path := "/api/v1/podcasts/" + url.PathEscape(podcastID) + "/download." + format
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	name := podcastID + "." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, nil
}

// documentInfo mirrors the document summary the server returns.
type documentInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PageCount int    `json:"page_count"`
	Language  string `json:"language,omitempty"`
}
