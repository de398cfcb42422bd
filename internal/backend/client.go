/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"certstudio/internal/domain"
)

// Client is the HTTP client the editor uses against the certificate API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a backend client. baseURL may include a trailing slash;
// it is normalized.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// ListCertificates returns all certificate templates.
func (c *Client) ListCertificates(ctx context.Context) ([]domain.Certificate, error) {
	var list []domain.Certificate
	if err := c.doJSON(ctx, http.MethodGet, "/api/certificates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetCertificate fetches one template by id.
func (c *Client) GetCertificate(ctx context.Context, id int64) (*domain.Certificate, error) {
	var cert domain.Certificate
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/certificates/%d", id), nil, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// CreateCertificate stores a new template and returns it with its assigned
// id.
func (c *Client) CreateCertificate(ctx context.Context, cert *domain.Certificate) (*domain.Certificate, error) {
	if err := cert.Validate(); err != nil {
		return nil, err
	}
	var created domain.Certificate
	if err := c.doJSON(ctx, http.MethodPost, "/api/certificates", cert, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateCertificate replaces an existing template.
func (c *Client) UpdateCertificate(ctx context.Context, cert *domain.Certificate) error {
	if err := cert.Validate(); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/certificates/%d", cert.ID), cert, nil)
}

// DeleteCertificate removes a template.
func (c *Client) DeleteCertificate(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/certificates/%d", id), nil, nil)
}
