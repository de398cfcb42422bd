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
	"log/slog"
	"math"

	"certstudio/internal/geom"
	applog "certstudio/internal/log"
)

// Orientation of a page.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Logical page size in landscape (PDF points, A4-ish certificate canvas).
const (
	PageLongSide  = 842.0
	PageShortSide = 595.0
)

// PageSize returns the logical page dimensions for an orientation.
func PageSize(o Orientation) geom.Size {
	if o == Portrait {
		return geom.Size{W: PageShortSide, H: PageLongSide}
	}
	return geom.Size{W: PageLongSide, H: PageShortSide}
}

// ErrProtectedObject is returned when an operation targets the background
// rectangle or the background image. Guard refusals are expected and
// frequent; callers treat them as no-ops.
var ErrProtectedObject = errors.New("object is protected")

// EventKind discriminates graph change notifications.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
	EventModified
	EventReordered
	EventCleared
)

// Event is delivered synchronously to listeners on every graph mutation.
type Event struct {
	Kind   EventKind
	Object *Object // nil for EventReordered/EventCleared
}

// Graph is an ordered sequence of scene objects rendered back-to-front.
// Invariant: index 0 is the background rectangle (always present, logical
// page size, never serialized as a user object); a background image, when
// present, sits at index 1 and is locked.
type Graph struct {
	orientation Orientation
	objects     []*Object
	listeners   []func(Event)
	log         *slog.Logger
}

// NewGraph creates a graph for the given orientation and synthesizes the
// background rectangle.
func NewGraph(o Orientation) *Graph {
	if o != Portrait {
		o = Landscape
	}
	g := &Graph{orientation: o, log: applog.WithComponent("scene")}
	g.ensureBackground()
	return g
}

// Subscribe registers a mutation listener. Listeners run synchronously on
// the mutating call.
func (g *Graph) Subscribe(fn func(Event)) { g.listeners = append(g.listeners, fn) }

func (g *Graph) emit(e Event) {
	for _, fn := range g.listeners {
		fn(e)
	}
}

// Orientation returns the page orientation.
func (g *Graph) Orientation() Orientation { return g.orientation }

// SetOrientation transposes the logical page and resizes the background
// rectangle. Objects keep their positions; the caller re-fits backgrounds.
func (g *Graph) SetOrientation(o Orientation) {
	if o != Portrait {
		o = Landscape
	}
	if o == g.orientation {
		return
	}
	g.orientation = o
	bg := g.BackgroundRect()
	size := PageSize(o)
	bg.Width, bg.Height = size.W, size.H
	bg.Left, bg.Top = size.W/2, size.H/2
	g.emit(Event{Kind: EventModified, Object: bg})
}

// ensureBackground synthesizes the background rectangle at index 0 when
// missing. Deserialization inconsistencies self-heal through this path.
func (g *Graph) ensureBackground() *Object {
	if bg := g.BackgroundRect(); bg != nil {
		return bg
	}
	size := PageSize(g.orientation)
	bg := NewRect(size.W, size.H, "#ffffff", "", 0, 0)
	bg.Name = NameBackgroundRect
	bg.Locked = true
	bg.Left, bg.Top = size.W/2, size.H/2
	g.objects = append([]*Object{bg}, g.objects...)
	return bg
}

// BackgroundRect returns the reserved background rectangle, or nil when the
// graph is in a pre-heal state during loading.
func (g *Graph) BackgroundRect() *Object {
	for _, o := range g.objects {
		if o.Name == NameBackgroundRect {
			return o
		}
	}
	return nil
}

// BackgroundImage returns the current background-image-role object, if any.
func (g *Graph) BackgroundImage() *Object {
	for _, o := range g.objects {
		if o.Name == NameBackgroundImage {
			return o
		}
	}
	return nil
}

// Objects returns the stacking order, bottom first, including background
// objects. The slice is a copy.
func (g *Graph) Objects() []*Object {
	out := make([]*Object, len(g.objects))
	copy(out, g.objects)
	return out
}

// UserObjects returns the stacking order excluding the background rectangle
// and background image.
func (g *Graph) UserObjects() []*Object {
	var out []*Object
	for _, o := range g.objects {
		if o.Name == NameBackgroundRect || o.Name == NameBackgroundImage {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Len returns the total object count including background objects.
func (g *Graph) Len() int { return len(g.objects) }

// IndexOf returns the stacking index of obj, or -1.
func (g *Graph) IndexOf(obj *Object) int {
	for i, o := range g.objects {
		if o == obj {
			return i
		}
	}
	return -1
}

// ByID finds an object by its unique id.
func (g *Graph) ByID(id string) *Object {
	for _, o := range g.objects {
		if o.id == id {
			return o
		}
	}
	return nil
}

// Add appends an object on top of the stacking order.
func (g *Graph) Add(obj *Object) *Object {
	g.objects = append(g.objects, obj)
	g.emit(Event{Kind: EventAdded, Object: obj})
	return obj
}

// Remove deletes an object. The background rectangle and background image are
// silently protected; the refusal is logged for diagnostics only.
func (g *Graph) Remove(obj *Object) error {
	if obj.Name == NameBackgroundRect || obj.Name == NameBackgroundImage {
		g.log.Debug("remove refused for protected object", slog.String("id", obj.id), slog.String("name", obj.Name))
		return ErrProtectedObject
	}
	i := g.IndexOf(obj)
	if i < 0 {
		return nil
	}
	g.objects = append(g.objects[:i], g.objects[i+1:]...)
	g.emit(Event{Kind: EventRemoved, Object: obj})
	return nil
}

// detach removes obj without the protection guard. Used internally for
// background eviction and serialization detach.
func (g *Graph) detach(obj *Object) {
	i := g.IndexOf(obj)
	if i < 0 {
		return
	}
	g.objects = append(g.objects[:i], g.objects[i+1:]...)
}

// baseIndex returns the first stacking index available to user objects:
// above the background rectangle and background image.
func (g *Graph) baseIndex() int {
	n := 0
	for _, o := range g.objects {
		if o.Name == NameBackgroundRect || o.Name == NameBackgroundImage {
			n++
			continue
		}
		break
	}
	return n
}

// MoveToIndex restacks a user object to the given absolute index. Indexes
// inside the reserved background zone clamp to just above it.
func (g *Graph) MoveToIndex(obj *Object, idx int) error {
	if obj.Name == NameBackgroundRect || obj.Name == NameBackgroundImage {
		return ErrProtectedObject
	}
	cur := g.IndexOf(obj)
	if cur < 0 {
		return errors.New("object not in graph")
	}
	base := g.baseIndex()
	if idx < base {
		idx = base
	}
	if idx >= len(g.objects) {
		idx = len(g.objects) - 1
	}
	g.objects = append(g.objects[:cur], g.objects[cur+1:]...)
	rest := make([]*Object, 0, len(g.objects)+1)
	rest = append(rest, g.objects[:idx]...)
	rest = append(rest, obj)
	rest = append(rest, g.objects[idx:]...)
	g.objects = rest
	g.emit(Event{Kind: EventReordered})
	return nil
}

// RestackUserObjects replaces the user-object portion of the stacking order
// with the given sequence (bottom first), preserving background positions.
func (g *Graph) RestackUserObjects(order []*Object) error {
	if len(order) != len(g.UserObjects()) {
		return errors.New("restack order must cover all user objects")
	}
	base := g.objects[:g.baseIndex()]
	next := make([]*Object, 0, len(base)+len(order))
	next = append(next, base...)
	for _, o := range order {
		if g.IndexOf(o) < 0 {
			return errors.New("restack order contains foreign object")
		}
		next = append(next, o)
	}
	g.objects = next
	g.emit(Event{Kind: EventReordered})
	return nil
}

// HitTest resolves the topmost visible, interactive object containing p.
// The background rectangle and locked objects never hit.
func (g *Graph) HitTest(p geom.Pt) *Object {
	for i := len(g.objects) - 1; i >= 0; i-- {
		o := g.objects[i]
		if o.Name == NameBackgroundRect || o.Locked || !o.Visible {
			continue
		}
		if o.Hit(p) {
			return o
		}
	}
	return nil
}

// SetBackgroundImage installs obj as the page background: scaled uniformly to
// cover the full logical page, centered, locked, and re-inserted immediately
// above the background rectangle. A prior background image is evicted.
func (g *Graph) SetBackgroundImage(obj *Object) error {
	if obj == nil || obj.Kind != KindImage {
		return errors.New("background image must be an image object")
	}
	if obj.Bitmap == nil && obj.ResolvedURL == "" {
		return errors.New("source image is disposed")
	}
	if prior := g.BackgroundImage(); prior != nil && prior != obj {
		g.detach(prior)
		g.emit(Event{Kind: EventRemoved, Object: prior})
	}
	g.detach(obj)

	size := PageSize(g.orientation)
	if obj.Width <= 0 || obj.Height <= 0 {
		return errors.New("image has no dimensions")
	}
	s := math.Max(size.W/obj.Width, size.H/obj.Height)
	obj.ScaleX, obj.ScaleY = s, s
	obj.Left, obj.Top = size.W/2, size.H/2 // center; overflow splits evenly
	obj.Angle = 0
	obj.Locked = true
	obj.Name = NameBackgroundImage

	bgIdx := g.IndexOf(g.ensureBackground())
	rest := make([]*Object, 0, len(g.objects)+1)
	rest = append(rest, g.objects[:bgIdx+1]...)
	rest = append(rest, obj)
	rest = append(rest, g.objects[bgIdx+1:]...)
	g.objects = rest
	g.emit(Event{Kind: EventAdded, Object: obj})
	return nil
}

// Touch signals that obj's properties changed. Property edits batch their
// sets and issue one Touch, replacing the eager re-render pattern.
func (g *Graph) Touch(obj *Object) {
	g.emit(Event{Kind: EventModified, Object: obj})
}

// Clear removes everything and re-synthesizes the background rectangle.
func (g *Graph) Clear() {
	g.objects = nil
	g.ensureBackground()
	g.emit(Event{Kind: EventCleared})
}
