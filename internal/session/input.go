/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"time"

	"certstudio/internal/geom"
	"certstudio/internal/scene"
)

// DoubleClickWindow is the maximum gap between two clicks on the same object
// for the pair to count as a double click.
const DoubleClickWindow = 350 * time.Millisecond

// clickState is the double-click detector: Idle, or armed with a deadline
// and the id of the object the first click landed on.
type clickState struct {
	armed    bool
	deadline time.Time
	targetID string
}

// PointerDown handles a primary-button press at page point p. A double click
// on a text object enters edit mode with all text selected; a single click
// selects; empty canvas clears selection and exits any open editor.
func (s *Session) PointerDown(p geom.Pt, at time.Time) {
	obj := s.graph.HitTest(p)
	double := obj != nil && s.click.armed && !at.After(s.click.deadline) && s.click.targetID == obj.ID()
	if obj == nil || double {
		s.click = clickState{}
	} else {
		s.click = clickState{armed: true, deadline: at.Add(DoubleClickWindow), targetID: obj.ID()}
	}

	if obj == nil {
		s.ClearSelection()
		return
	}
	if double && obj.Kind == scene.KindText {
		if ed := s.EnterEdit(obj); ed != nil {
			ed.SelectAll()
		}
		return
	}
	s.Select(obj)
}

// MenuItem identifies a context-menu entry.
type MenuItem string

const (
	MenuApplyAsBackground MenuItem = "apply-as-background"
	MenuDelete            MenuItem = "delete"
)

// ContextHit is the result of a right-click: where it happened on screen,
// what it resolved to, and which menu entries apply.
type ContextHit struct {
	Screen geom.Pt
	Target *scene.Object
	Items  []MenuItem
}

// ContextMenu resolves the topmost object under the page point p, selects it
// if found, and reports the applicable menu. Images get apply-as-background
// plus delete, other objects delete only, empty canvas nothing.
func (s *Session) ContextMenu(page, screen geom.Pt) ContextHit {
	obj := s.graph.HitTest(page)
	hit := ContextHit{Screen: screen, Target: obj}
	if obj == nil {
		return hit
	}
	s.Select(obj)
	if obj.Kind == scene.KindImage {
		hit.Items = []MenuItem{MenuApplyAsBackground, MenuDelete}
	} else {
		hit.Items = []MenuItem{MenuDelete}
	}
	return hit
}

// Key identifies non-rune keys of the pipeline.
type Key int

const (
	KeyRune Key = iota
	KeyDelete
	KeyBackspace
	KeyEnter
)

// Mods is a modifier bitmask. ModCtrl covers both Ctrl and Cmd.
type Mods uint8

const (
	ModCtrl Mods = 1 << iota
	ModShift
	ModAlt
)

// KeyEvent is one keystroke entering the pipeline.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods Mods
}

// HandleKey routes a keystroke. Returns true when the event was consumed.
// Only the active page's session should be fed key events.
func (s *Session) HandleKey(ev KeyEvent) bool {
	ed := s.focus.Active()
	if ed != nil && ed.session != s {
		ed = nil
	}

	if ev.Mods&ModCtrl != 0 {
		return s.handleShortcut(ev, ed)
	}

	switch ev.Key {
	case KeyDelete:
		if ed != nil {
			ed.DeleteForward()
			return true
		}
		s.DeleteSelection()
		return true
	case KeyBackspace:
		if ed != nil {
			ed.DeleteBackward()
			return true
		}
		s.DeleteSelection()
		return true
	case KeyEnter:
		if ed != nil {
			ed.InsertNewline()
			return true
		}
		return false
	case KeyRune:
		if ed != nil && ev.Rune != 0 {
			ed.InsertText(string(ev.Rune))
			return true
		}
		return false
	}
	return false
}

func (s *Session) handleShortcut(ev KeyEvent, ed *Editor) bool {
	switch ev.Rune {
	case 'd', 'D':
		s.Duplicate()
		return true
	case 'b', 'B':
		return s.toggleTextStyle(func(f *scene.FontSettings) {
			if f.Weight == "bold" {
				f.Weight = "normal"
			} else {
				f.Weight = "bold"
			}
		})
	case 'i', 'I':
		return s.toggleTextStyle(func(f *scene.FontSettings) {
			if f.Style == "italic" {
				f.Style = "normal"
			} else {
				f.Style = "italic"
			}
		})
	case 'u', 'U':
		return s.toggleTextStyle(func(f *scene.FontSettings) {
			f.Underline = !f.Underline
		})
	case 'a', 'A':
		if ed != nil {
			ed.SelectAll()
			return true
		}
	case 'c', 'C':
		if ed != nil && s.clip != nil {
			s.clip.WriteText(ed.SelectedText())
			return true
		}
	case 'x', 'X':
		if ed != nil && s.clip != nil {
			s.clip.WriteText(ed.SelectedText())
			ed.DeleteBackward() // removes the selected range
			return true
		}
	case 'v', 'V':
		if ed != nil && s.clip != nil {
			text, err := s.clip.ReadText()
			if err != nil {
				s.log.Warn("clipboard read failed", "err", err)
				return true
			}
			ed.Paste(text)
			return true
		}
	}
	return false
}

// toggleTextStyle applies a font mutation to the selected object when it is
// text. The Bebas Neue constraints are re-applied after every toggle.
func (s *Session) toggleTextStyle(mutate func(*scene.FontSettings)) bool {
	obj := s.Selected()
	if obj == nil || obj.Kind != scene.KindText {
		return false
	}
	mutate(&obj.Font)
	normalizeFont(&obj.Font)
	s.graph.Touch(obj)
	return true
}

// InsertComposedText forwards committed IME composition text into the open
// editor. The host's input proxy calls this on compositionend; a no-op when
// nothing is being edited.
func (s *Session) InsertComposedText(text string) {
	ed := s.focus.Active()
	if ed == nil || ed.session != s || text == "" {
		return
	}
	ed.InsertText(text)
}
