/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imageproxy loads images for the canvas, routing cross-origin URLs
// through the backend proxy so later pixel export is not tainted.
package imageproxy

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	// register decoders for the formats the backend serves
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	applog "certstudio/internal/log"
)

// ProxyPath is the backend endpoint contract: GET {base}/images/proxy?url=<encoded>.
const ProxyPath = "/images/proxy"

// Client fetches images, rewriting cross-origin URLs through the proxy and
// falling back to the original URL once on proxy failure.
type Client struct {
	// BaseURL is the same-origin base the proxy lives under.
	BaseURL string
	// Origin is the application origin; URLs on it are fetched directly.
	Origin string

	client *http.Client
	log    *slog.Logger
}

// NewClient creates a proxy-aware image client.
func NewClient(baseURL, origin string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Origin:  strings.TrimRight(origin, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     applog.WithComponent("imageproxy"),
	}
}

// CrossOrigin reports whether raw is an absolute http/https URL on a
// different origin than the application.
func (c *Client) CrossOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	o, err := url.Parse(c.Origin)
	if err != nil || c.Origin == "" {
		return true
	}
	return u.Scheme != o.Scheme || u.Host != o.Host
}

// Rewrite returns the URL to actually fetch: cross-origin URLs are routed
// through the proxy endpoint, everything else passes through.
func (c *Client) Rewrite(raw string) string {
	if !c.CrossOrigin(raw) {
		return raw
	}
	return c.BaseURL + ProxyPath + "?url=" + url.QueryEscape(raw)
}

// Result is a fetched, decoded image.
type Result struct {
	Image image.Image
	// ResolvedURL is what was actually fetched (possibly the proxy).
	ResolvedURL string
	// Tainted is set when a cross-origin URL had to be fetched directly
	// because the proxy failed; pixel export of such an image would be
	// blocked by canvas tainting rules.
	Tainted bool
}

// Fetch loads and decodes the image at raw. The proxied URL is tried first
// for cross-origin sources; on failure the original URL is retried once.
func (c *Client) Fetch(ctx context.Context, raw string) (*Result, error) {
	resolved := c.Rewrite(raw)
	img, err := c.get(ctx, resolved)
	if err == nil {
		return &Result{Image: img, ResolvedURL: resolved}, nil
	}
	if resolved == raw {
		return nil, fmt.Errorf("load image: %w", err)
	}
	c.log.Warn("proxy fetch failed, retrying original URL", slog.String("url", raw), slog.Any("err", err))
	img, err2 := c.get(ctx, raw)
	if err2 != nil {
		return nil, fmt.Errorf("load image (proxy and original failed): %w", err2)
	}
	return &Result{Image: img, ResolvedURL: raw, Tainted: true}, nil
}

func (c *Client) get(ctx context.Context, u string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: %s", u, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
