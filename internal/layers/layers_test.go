/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layers

import (
	"image"
	"testing"

	"certstudio/internal/scene"
)

func names(p *Panel) []string {
	out := make([]string, len(p.Items()))
	for i, it := range p.Items() {
		out[i] = it.Name
	}
	return out
}

func TestPanelExcludesBackgroundsReverseOrder(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	bgImg := scene.NewImage("bg", "u", "u", image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if err := g.SetBackgroundImage(bgImg); err != nil {
		t.Fatalf("SetBackgroundImage: %v", err)
	}
	a := g.Add(scene.NewRect(10, 10, "#fff", "", 0, 0))
	b := g.Add(scene.NewCircle(10, 10, "#fff", "", 0))

	p := NewPanel(g)
	items := p.Items()
	if len(items) != 2 {
		t.Fatalf("panel has %d rows, want 2", len(items))
	}
	// topmost first
	if items[0].ID != b.ID() || items[1].ID != a.ID() {
		t.Fatalf("rows not in reverse stacking order: %+v", items)
	}
}

func TestDisplayNames(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	g.Add(scene.NewRect(10, 10, "", "", 0, 0)) // bottom rect
	g.Add(scene.NewText("Certificate of Completion awarded to", scene.FontSettings{}))
	g.Add(scene.NewText("   ", scene.FontSettings{}))
	g.Add(scene.NewImage("seal.png", "u", "u", nil))
	g.Add(scene.NewImage("", "u", "u", nil))   // unnamed image
	g.Add(scene.NewRect(10, 10, "", "", 0, 0)) // top rect

	p := NewPanel(g)
	got := names(p)
	want := []string{
		"Rectangle 1",          // topmost rect is the 1st rectangle in scan order
		"Image 1",              // unnamed image falls back with counter
		"seal.png",             // named image keeps its name
		"Text 1",               // blank text falls back
		"Certificate of Compl", // first 20 characters
		"Rectangle 2",
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %q, want %q (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTogglesMutateObjectAndRefresh(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	o := g.Add(scene.NewRect(10, 10, "", "", 0, 0))
	p := NewPanel(g)

	p.ToggleVisible(o.ID())
	if o.Visible {
		t.Fatal("visibility not toggled")
	}
	if p.Items()[0].Visible {
		t.Fatal("panel row not refreshed")
	}

	p.ToggleLock(o.ID())
	if !o.Locked {
		t.Fatal("lock not toggled")
	}
	if !p.Items()[0].Locked {
		t.Fatal("panel row not refreshed after lock")
	}
}

func TestTogglesIgnoreBackgroundAndUnknown(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	p := NewPanel(g)
	bg := g.BackgroundRect()
	p.ToggleVisible(bg.ID())
	if !bg.Visible {
		t.Fatal("background rectangle toggled through the panel")
	}
	p.ToggleVisible("no-such-id") // must not panic
}

func TestReorderPreservesBackgrounds(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	bgImg := scene.NewImage("bg", "u", "u", image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if err := g.SetBackgroundImage(bgImg); err != nil {
		t.Fatalf("SetBackgroundImage: %v", err)
	}
	a := g.Add(scene.NewRect(10, 10, "", "", 0, 0))
	b := g.Add(scene.NewCircle(10, 10, "", "", 0))
	c := g.Add(scene.NewTriangle(10, 10, "", "", 0))

	p := NewPanel(g)
	// drag the topmost row (c) to the bottom of the panel
	if err := p.Reorder(0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	user := g.UserObjects()
	if user[0] != c || user[1] != a || user[2] != b {
		t.Fatalf("stacking after reorder: %v %v %v", user[0].ID(), user[1].ID(), user[2].ID())
	}
	if g.IndexOf(g.BackgroundRect()) != 0 || g.IndexOf(g.BackgroundImage()) != 1 {
		t.Fatal("background objects moved during reorder")
	}
	if p.Items()[2].ID != c.ID() {
		t.Fatal("panel rows not refreshed after reorder")
	}
}

func TestReorderOutOfRange(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	g.Add(scene.NewRect(10, 10, "", "", 0, 0))
	p := NewPanel(g)
	if err := p.Reorder(0, 5); err == nil {
		t.Fatal("expected range error")
	}
}
