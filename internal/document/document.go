/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document coordinates the ordered page set of a certificate
// template: one front page, an optional back page, and the serialization
// round-trip with the backend record shape.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	applog "certstudio/internal/log"
	"certstudio/internal/scene"
	"certstudio/internal/session"
)

// MaxPages bounds the page count: front plus an optional back.
const MaxPages = 2

// MountPollInterval is how often the loader re-checks an unmounted page's
// canvas handle.
const MountPollInterval = 20 * time.Millisecond

// Page binds a page id to its canvas session. A page exists as data before
// its rendering surface mounts; mutations wait for the mount.
type Page struct {
	ID      string
	Session *session.Session

	mounted bool
}

// Config carries the session collaborators shared by all pages.
type Config struct {
	Orientation scene.Orientation
	Images      session.ImageFetcher
	Clipboard   session.Clipboard
	Fonts       session.FontWaiter
	Defer       session.DeferFunc
	Now         func() time.Time

	// AutoMount marks every new page mounted on creation. Hosts without a
	// per-page rendering surface (PDF export, the preview window) set this;
	// hosts that attach real canvases leave it off and call Mount when the
	// surface is ready.
	AutoMount bool
}

// Coordinator owns the ordered page list and the page id -> session
// registry.
type Coordinator struct {
	cfg    Config
	focus  *session.Focus
	pages  []*Page
	viewed int
	log    *slog.Logger
}

// New creates a coordinator with a mounted front page.
func New(cfg Config) *Coordinator {
	if cfg.Orientation == "" {
		cfg.Orientation = scene.Landscape
	}
	c := &Coordinator{
		cfg:   cfg,
		focus: session.NewFocus(),
		log:   applog.WithComponent("document"),
	}
	front := c.newPage(cfg.Orientation)
	front.mounted = true
	c.pages = append(c.pages, front)
	return c
}

func (c *Coordinator) newPage(o scene.Orientation) *Page {
	return &Page{
		ID:      uuid.NewString(),
		mounted: c.cfg.AutoMount,
		Session: session.New(session.Config{
			Orientation: o,
			Focus:       c.focus,
			Images:      c.cfg.Images,
			Clipboard:   c.cfg.Clipboard,
			Fonts:       c.cfg.Fonts,
			Defer:       c.cfg.Defer,
			Now:         c.cfg.Now,
		}),
	}
}

// Pages returns the ordered page list.
func (c *Coordinator) Pages() []*Page { return c.pages }

// Front returns the front page.
func (c *Coordinator) Front() *Page { return c.pages[0] }

// Back returns the back page, or nil.
func (c *Coordinator) Back() *Page {
	if len(c.pages) < MaxPages {
		return nil
	}
	return c.pages[1]
}

// Viewed returns the index of the currently viewed page.
func (c *Coordinator) Viewed() int { return c.viewed }

// SetViewed switches the viewed page, clamped to the page list.
func (c *Coordinator) SetViewed(i int) {
	if i < 0 {
		i = 0
	}
	if i >= len(c.pages) {
		i = len(c.pages) - 1
	}
	c.viewed = i
}

// AddPage appends a back page inheriting the front page's orientation.
// A no-op once both pages exist; the existing back page is returned.
func (c *Coordinator) AddPage() *Page {
	if len(c.pages) >= MaxPages {
		return c.pages[MaxPages-1]
	}
	p := c.newPage(c.Front().Session.Graph().Orientation())
	c.pages = append(c.pages, p)
	return p
}

// RemovePage deletes the page at index i. A no-op with a single page left;
// the viewed index clamps to the new last page when needed.
func (c *Coordinator) RemovePage(i int) {
	if len(c.pages) <= 1 || i < 0 || i >= len(c.pages) {
		return
	}
	c.pages = append(c.pages[:i], c.pages[i+1:]...)
	if c.viewed >= len(c.pages) {
		c.viewed = len(c.pages) - 1
	}
}

// Mount marks a page's rendering surface as ready. Loaders polling for the
// handle proceed once this is called.
func (c *Coordinator) Mount(pageID string) {
	if p := c.pageByID(pageID); p != nil {
		p.mounted = true
	}
}

// Handle returns the session of a mounted page, or nil when the page is
// unknown or not yet mounted. Callers treat nil as a no-op, not an error.
func (c *Coordinator) Handle(pageID string) *session.Session {
	p := c.pageByID(pageID)
	if p == nil || !p.mounted {
		return nil
	}
	return p.Session
}

func (c *Coordinator) pageByID(id string) *Page {
	for _, p := range c.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// waitMounted polls until the page's handle is available or ctx ends.
func (c *Coordinator) waitMounted(ctx context.Context, p *Page) error {
	for !p.mounted {
		select {
		case <-ctx.Done():
			return fmt.Errorf("page %s never mounted: %w", p.ID, ctx.Err())
		case <-time.After(MountPollInterval):
		}
	}
	return nil
}

// Data is the serialized document shape exchanged with the backend.
type Data struct {
	FrontJSON string
	BackJSON  *string
	Width     float64
	Height    float64
}

// DocumentData serializes both pages. The background rectangle is detached
// during serialization and never appears in the output; the background image
// serializes with its role tag so loading can re-pin it.
func (c *Coordinator) DocumentData() (*Data, error) {
	front, err := c.Front().Session.Graph().MarshalObjects()
	if err != nil {
		return nil, fmt.Errorf("serialize front page: %w", err)
	}
	size := scene.PageSize(c.Front().Session.Graph().Orientation())
	d := &Data{FrontJSON: string(front), Width: size.W, Height: size.H}

	if back := c.Back(); back != nil {
		b, err := back.Session.Graph().MarshalObjects()
		if err != nil {
			return nil, fmt.Errorf("serialize back page: %w", err)
		}
		s := string(b)
		d.BackJSON = &s
	}
	return d, nil
}

// LoadDocumentData replaces the document contents. Loaded objects get fresh
// unique ids and the background invariants are restored by the graph loader.
// A back payload creates the back page when absent and waits for its canvas
// handle to mount before loading into it.
func (c *Coordinator) LoadDocumentData(ctx context.Context, d *Data) error {
	if d == nil {
		return fmt.Errorf("load document: nil data")
	}
	if err := c.Front().Session.Graph().LoadObjects([]byte(d.FrontJSON)); err != nil {
		return fmt.Errorf("load front page: %w", err)
	}
	c.Front().Session.ClearSelection()

	if d.BackJSON == nil {
		return nil
	}
	back := c.Back()
	if back == nil {
		back = c.AddPage()
	}
	if err := c.waitMounted(ctx, back); err != nil {
		return err
	}
	if err := back.Session.Graph().LoadObjects([]byte(*d.BackJSON)); err != nil {
		return fmt.Errorf("load back page: %w", err)
	}
	back.Session.ClearSelection()
	return nil
}
