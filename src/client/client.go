// Package client calls a running translation server.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/server"
	"screen-translator/src/service"
)

// Client mirrors the service operations over HTTP. Failures reported by the
// server come back as *apperr.Error with the server's code.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Recognize(ctx context.Context, png []byte) (service.Recognition, error) {
	var resp server.OCRResponse
	err := c.post(ctx, "/ocr", server.OCRRequest{Image: base64.StdEncoding.EncodeToString(png)}, &resp)
	return resp.Recognition, err
}

func (c *Client) Translate(ctx context.Context, text string) (service.TranslationResult, error) {
	return c.TranslateWith(ctx, text, "", "")
}

func (c *Client) TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error) {
	var resp server.TranslateResponse
	err := c.post(ctx, "/translate", server.TranslateRequest{Text: text, Source: source, Target: target}, &resp)
	return resp, err
}

func (c *Client) DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error) {
	var resp server.LookupResponse
	err := c.post(ctx, "/lookup", server.LookupRequest{Word: word}, &resp)
	return resp.Entry, err
}

func (c *Client) Similar(ctx context.Context, prefix string, limit int) ([]string, error) {
	var resp server.SimilarResponse
	err := c.post(ctx, "/similar", server.SimilarRequest{Prefix: prefix, Limit: limit}, &resp)
	return resp.Words, err
}

// HealthCheck never fails: an unreachable server is reported as an
// unhealthy "service" engine.
func (c *Client) HealthCheck(ctx context.Context) service.Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return unreachable(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return unreachable(err)
	}
	defer resp.Body.Close()

	var out server.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return unreachable(fmt.Errorf("bad health response (status %d): %w", resp.StatusCode, err))
	}
	return out.Health
}

func unreachable(err error) service.Health {
	return service.Health{
		Engines: map[string]service.EngineStatus{
			"service": {Name: "service", Required: true, Error: err.Error()},
		},
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperr.NewUnavailable("service", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var e server.ErrorResponse
		if err := json.Unmarshal(data, &e); err != nil || e.Code == "" {
			return apperr.New(apperr.Internal, fmt.Sprintf("%s returned status %d", path, resp.StatusCode))
		}
		return &apperr.Error{Code: e.Code, Reason: e.Reason, Message: e.Error}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
