/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"fmt"
	"time"

	"certstudio/internal/undo"
)

// History binds an undo manager to the coordinator's pages. Callers snapshot
// a page before each mutating operation; undo and redo swap the serialized
// scene back in.
type History struct {
	c *Coordinator
	m *undo.Manager
}

// NewHistory attaches per-page undo to the coordinator.
func NewHistory(c *Coordinator, cfg undo.Config) *History {
	return &History{c: c, m: undo.NewManager(cfg)}
}

// Snapshot captures a page's current scene for later undo. Call before a
// mutating operation.
func (h *History) Snapshot(pageID string) error {
	p := h.c.pageByID(pageID)
	if p == nil {
		return fmt.Errorf("snapshot: unknown page %s", pageID)
	}
	blob, err := p.Session.Graph().MarshalObjects()
	if err != nil {
		return fmt.Errorf("snapshot page %s: %w", pageID, err)
	}
	h.m.Push(undo.Snapshot{PageID: pageID, Blob: blob, TS: time.Now()})
	return nil
}

// Undo restores the page's most recent snapshot. The scene as it stood
// before the undo becomes redoable. Returns false when there is nothing to
// undo.
func (h *History) Undo(pageID string) (bool, error) {
	return h.restore(pageID, h.m.Undo)
}

// Redo re-applies the scene undone last.
func (h *History) Redo(pageID string) (bool, error) {
	return h.restore(pageID, h.m.Redo)
}

func (h *History) restore(pageID string, pop func(string, []byte) (undo.Snapshot, bool)) (bool, error) {
	p := h.c.pageByID(pageID)
	if p == nil {
		return false, nil // page gone; treated as a no-op
	}
	current, err := p.Session.Graph().MarshalObjects()
	if err != nil {
		return false, fmt.Errorf("restore page %s: %w", pageID, err)
	}
	s, ok := pop(pageID, current)
	if !ok {
		return false, nil
	}
	if err := p.Session.Graph().LoadObjects(s.Blob); err != nil {
		return false, fmt.Errorf("restore page %s: %w", pageID, err)
	}
	p.Session.ClearSelection()
	return true, nil
}

// Forget drops a removed page's history.
func (h *History) Forget(pageID string) { h.m.ClearPage(pageID) }
