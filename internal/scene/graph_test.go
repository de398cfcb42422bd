/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"image"
	"math"
	"testing"

	"certstudio/internal/geom"
)

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestNewGraphSynthesizesBackground(t *testing.T) {
	g := NewGraph(Landscape)
	bg := g.BackgroundRect()
	if bg == nil {
		t.Fatalf("background rectangle missing")
	}
	if g.IndexOf(bg) != 0 {
		t.Fatalf("background rectangle not at index 0")
	}
	if bg.Width != PageLongSide || bg.Height != PageShortSide {
		t.Fatalf("unexpected background dims: %v x %v", bg.Width, bg.Height)
	}
}

func TestBackgroundStaysAtBottomAcrossMutations(t *testing.T) {
	g := NewGraph(Landscape)
	r := g.Add(NewRect(100, 50, "#ff0000", "", 0, 0))
	c := g.Add(NewCircle(40, 40, "#00ff00", "", 0))
	img := NewImage("photo", "http://x/img.png", "http://x/img.png", testImage(400, 300))
	g.Add(img)
	if err := g.SetBackgroundImage(img); err != nil {
		t.Fatalf("apply background: %v", err)
	}
	if err := g.MoveToIndex(c, 0); err != nil {
		t.Fatalf("restack: %v", err)
	}
	objs := g.Objects()
	if objs[0].Name != NameBackgroundRect {
		t.Fatalf("background rectangle displaced from index 0")
	}
	if objs[1].Name != NameBackgroundImage {
		t.Fatalf("background image not at index 1")
	}
	if objs[2] != c || objs[3] != r {
		t.Fatalf("restack below backgrounds clamped incorrectly")
	}
}

func TestUniqueIDStableAcrossMutations(t *testing.T) {
	g := NewGraph(Landscape)
	r := g.Add(NewRect(100, 50, "#336699", "", 0, 0))
	id := r.ID()
	r.Left, r.Top = 400, 200
	r.Fill = "#000000"
	g.Touch(r)
	_ = g.MoveToIndex(r, 5)
	if r.ID() != id {
		t.Fatalf("unique id changed across mutations")
	}
	if r.Clone().ID() == id {
		t.Fatalf("clone must get a fresh id")
	}
}

func TestDeleteGuards(t *testing.T) {
	g := NewGraph(Landscape)
	img := NewImage("bg", "http://x/a.png", "http://x/a.png", testImage(10, 10))
	g.Add(img)
	if err := g.SetBackgroundImage(img); err != nil {
		t.Fatalf("apply background: %v", err)
	}
	before := g.Len()
	if err := g.Remove(g.BackgroundRect()); !errors.Is(err, ErrProtectedObject) {
		t.Fatalf("expected protection error for background rect, got %v", err)
	}
	if err := g.Remove(g.BackgroundImage()); !errors.Is(err, ErrProtectedObject) {
		t.Fatalf("expected protection error for background image, got %v", err)
	}
	if g.Len() != before {
		t.Fatalf("protected delete changed the graph")
	}

	r := g.Add(NewRect(10, 10, "#fff", "", 0, 0))
	if err := g.Remove(r); err != nil {
		t.Fatalf("remove user object: %v", err)
	}
	if g.ByID(r.ID()) != nil {
		t.Fatalf("object still present after remove")
	}
}

func TestBackgroundImageCoverScaling(t *testing.T) {
	g := NewGraph(Landscape)
	img := NewImage("bg", "http://x/a.png", "http://x/a.png", testImage(400, 300))
	g.Add(img)
	if err := g.SetBackgroundImage(img); err != nil {
		t.Fatalf("apply background: %v", err)
	}
	bg := g.BackgroundImage()
	if bg.ScaleX != bg.ScaleY {
		t.Fatalf("background image must scale uniformly: %v vs %v", bg.ScaleX, bg.ScaleY)
	}
	b := bg.Bounds()
	if b.X > 0 || b.X+b.W < PageLongSide || b.Y > 0 || b.Y+b.H < PageShortSide {
		t.Fatalf("background image does not cover the page: %+v", b)
	}
	if !bg.Locked {
		t.Fatalf("background image must be locked")
	}
}

func TestBackgroundImageEviction(t *testing.T) {
	g := NewGraph(Landscape)
	a := NewImage("a", "u1", "u1", testImage(10, 10))
	b := NewImage("b", "u2", "u2", testImage(20, 20))
	g.Add(a)
	g.Add(b)
	if err := g.SetBackgroundImage(a); err != nil {
		t.Fatalf("first background: %v", err)
	}
	if err := g.SetBackgroundImage(b); err != nil {
		t.Fatalf("second background: %v", err)
	}
	count := 0
	for _, o := range g.Objects() {
		if o.Name == NameBackgroundImage {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one background image, got %d", count)
	}
	if g.BackgroundImage() != b {
		t.Fatalf("eviction kept the wrong object")
	}
}

func TestHitTestTopmostAndExclusions(t *testing.T) {
	g := NewGraph(Landscape)
	bottom := g.Add(NewRect(200, 200, "#f00", "", 0, 0))
	bottom.Left, bottom.Top = 400, 300
	top := g.Add(NewRect(100, 100, "#0f0", "", 0, 0))
	top.Left, top.Top = 400, 300

	if got := g.HitTest(geom.Pt{X: 400, Y: 300}); got != top {
		t.Fatalf("expected topmost object, got %+v", got)
	}
	top.Locked = true
	if got := g.HitTest(geom.Pt{X: 400, Y: 300}); got != bottom {
		t.Fatalf("locked object must not hit, got %+v", got)
	}
	// empty canvas region hits nothing (background rect excluded)
	if got := g.HitTest(geom.Pt{X: 10, Y: 10}); got != nil {
		t.Fatalf("expected nil hit on empty canvas, got %+v", got)
	}
}

func TestCircleAndTriangleHit(t *testing.T) {
	c := NewCircle(100, 100, "#fff", "", 0)
	c.Left, c.Top = 0, 0
	if !c.Hit(geom.Pt{X: 0, Y: 49}) {
		t.Fatalf("expected hit inside circle")
	}
	if c.Hit(geom.Pt{X: 45, Y: 45}) {
		t.Fatalf("corner outside ellipse must miss")
	}
	tr := NewTriangle(100, 100, "#fff", "", 0)
	tr.Left, tr.Top = 0, 0
	if !tr.Hit(geom.Pt{X: 0, Y: 40}) {
		t.Fatalf("expected hit near triangle base")
	}
	if tr.Hit(geom.Pt{X: 40, Y: -40}) {
		t.Fatalf("top corner outside triangle must miss")
	}
}

func TestSetOrientationTransposesBackground(t *testing.T) {
	g := NewGraph(Landscape)
	g.SetOrientation(Portrait)
	bg := g.BackgroundRect()
	if bg.Width != PageShortSide || bg.Height != PageLongSide {
		t.Fatalf("background not transposed: %v x %v", bg.Width, bg.Height)
	}
}

func TestLineMinimumStroke(t *testing.T) {
	l := NewLine(120, "#000", 0.5)
	if l.StrokeWidth < 2 {
		t.Fatalf("line stroke width below minimum: %v", l.StrokeWidth)
	}
	if l.Controls.ScaleY || l.Controls.Skew {
		t.Fatalf("line must lock vertical scaling and skew")
	}
}

func TestCoverScaleMath(t *testing.T) {
	// wide page, tall image: scale picks the larger ratio
	g := NewGraph(Landscape)
	img := NewImage("bg", "u", "u", testImage(100, 1000))
	g.Add(img)
	if err := g.SetBackgroundImage(img); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := math.Max(PageLongSide/100, PageShortSide/1000)
	if got := g.BackgroundImage().ScaleX; math.Abs(got-want) > 1e-9 {
		t.Fatalf("cover scale mismatch: got %v want %v", got, want)
	}
}
