/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"testing"
	"time"

	"certstudio/internal/scene"
	"certstudio/internal/session"
	"certstudio/internal/undo"
)

func TestHistoryUndoRestoresScene(t *testing.T) {
	c := New(Config{})
	h := NewHistory(c, undo.Config{MinInterval: time.Nanosecond})
	front := c.Front()

	if err := h.Snapshot(front.ID); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	front.Session.AddShape(scene.KindRect, session.ShapeSettings{Fill: "#ff0000"})
	if len(front.Session.Graph().UserObjects()) != 1 {
		t.Fatal("precondition: one user object")
	}

	ok, err := h.Undo(front.ID)
	if err != nil || !ok {
		t.Fatalf("Undo: ok=%v err=%v", ok, err)
	}
	if len(front.Session.Graph().UserObjects()) != 0 {
		t.Fatal("undo did not restore the empty scene")
	}
	if front.Session.Graph().BackgroundRect() == nil {
		t.Fatal("background rectangle lost during undo")
	}
}

func TestHistoryRedoReappliesUndoneChange(t *testing.T) {
	c := New(Config{})
	h := NewHistory(c, undo.Config{MinInterval: time.Nanosecond})
	front := c.Front()

	if err := h.Snapshot(front.ID); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	front.Session.AddShape(scene.KindRect, session.ShapeSettings{Fill: "#00ff00"})

	if ok, err := h.Undo(front.ID); err != nil || !ok {
		t.Fatalf("Undo: ok=%v err=%v", ok, err)
	}
	if len(front.Session.Graph().UserObjects()) != 0 {
		t.Fatal("undo left the rectangle in place")
	}

	ok, err := h.Redo(front.ID)
	if err != nil || !ok {
		t.Fatalf("Redo: ok=%v err=%v", ok, err)
	}
	objs := front.Session.Graph().UserObjects()
	if len(objs) != 1 || objs[0].Kind != scene.KindRect || objs[0].Fill != "#00ff00" {
		t.Fatalf("redo did not bring the rectangle back: %+v", objs)
	}

	// A second undo walks back to the empty scene again.
	if ok, err := h.Undo(front.ID); err != nil || !ok {
		t.Fatalf("second Undo: ok=%v err=%v", ok, err)
	}
	if len(front.Session.Graph().UserObjects()) != 0 {
		t.Fatal("second undo did not restore the empty scene")
	}
}

func TestHistoryNothingToUndo(t *testing.T) {
	c := New(Config{})
	h := NewHistory(c, undo.Config{})
	ok, err := h.Undo(c.Front().ID)
	if err != nil || ok {
		t.Fatalf("empty undo: ok=%v err=%v", ok, err)
	}
}

func TestHistoryUnknownPageIsNoop(t *testing.T) {
	c := New(Config{})
	h := NewHistory(c, undo.Config{})
	if err := h.Snapshot("missing"); err == nil {
		t.Fatal("expected error for unknown page")
	}
	ok, err := h.Undo("missing")
	if err != nil || ok {
		t.Fatalf("undo on unknown page: ok=%v err=%v", ok, err)
	}
}
