/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layers derives the layer-panel list from a scene graph: a flat,
// reorderable view of the user objects in reverse stacking order, kept in
// step with the graph through its mutation events.
package layers

import (
	"fmt"
	"strings"

	"certstudio/internal/scene"
)

// Item is one panel row.
type Item struct {
	ID      string
	Name    string
	Kind    scene.Kind
	Visible bool
	Locked  bool
}

// Panel mirrors a scene graph's user objects, topmost first. The background
// rectangle and background image never appear.
type Panel struct {
	graph *scene.Graph
	items []Item
}

// NewPanel builds a panel bound to g and re-derives the list on every graph
// mutation.
func NewPanel(g *scene.Graph) *Panel {
	p := &Panel{graph: g}
	g.Subscribe(func(scene.Event) { p.refresh() })
	p.refresh()
	return p
}

// Items returns the current rows, topmost object first.
func (p *Panel) Items() []Item { return p.items }

func (p *Panel) refresh() {
	user := p.graph.UserObjects()
	items := make([]Item, 0, len(user))
	counters := map[scene.Kind]int{}
	// top-to-bottom scan order decides the per-type counters
	for i := len(user) - 1; i >= 0; i-- {
		o := user[i]
		counters[o.Kind]++
		items = append(items, Item{
			ID:      o.ID(),
			Name:    displayName(o, counters[o.Kind]),
			Kind:    o.Kind,
			Visible: o.Visible,
			Locked:  o.Locked,
		})
	}
	p.items = items
}

var kindLabels = map[scene.Kind]string{
	scene.KindRect:        "Rectangle",
	scene.KindCircle:      "Circle",
	scene.KindTriangle:    "Triangle",
	scene.KindLine:        "Line",
	scene.KindText:        "Text",
	scene.KindImage:       "Image",
	scene.KindPlaceholder: "Placeholder",
}

// displayName derives a row label. Text shows its first 20 characters,
// images and placeholders their name field, shapes a type label; every
// fallback carries the per-type counter n.
func displayName(o *scene.Object, n int) string {
	switch o.Kind {
	case scene.KindText:
		if t := strings.TrimSpace(o.Text); t != "" {
			r := []rune(t)
			if len(r) > 20 {
				r = r[:20]
			}
			return string(r)
		}
	case scene.KindImage, scene.KindPlaceholder:
		if o.Name != "" {
			return o.Name
		}
	}
	return fmt.Sprintf("%s %d", kindLabels[o.Kind], n)
}

func (p *Panel) object(id string) *scene.Object {
	o := p.graph.ByID(id)
	if o == nil {
		return nil
	}
	if o.Name == scene.NameBackgroundRect || o.Name == scene.NameBackgroundImage {
		return nil
	}
	return o
}

// ToggleVisible flips the visibility of the row's object.
func (p *Panel) ToggleVisible(id string) {
	o := p.object(id)
	if o == nil {
		return
	}
	o.Visible = !o.Visible
	p.graph.Touch(o)
}

// ToggleLock flips the locked flag of the row's object.
func (p *Panel) ToggleLock(id string) {
	o := p.object(id)
	if o == nil {
		return
	}
	o.Locked = !o.Locked
	p.graph.Touch(o)
}

// Reorder moves the row at from to position to (both panel indices, topmost
// first) and restacks the graph's user objects accordingly. The background
// objects keep their fixed bottom positions.
func (p *Panel) Reorder(from, to int) error {
	n := len(p.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("reorder: index out of range (%d -> %d of %d)", from, to, n)
	}
	if from == to {
		return nil
	}

	// panel order is the reverse of stacking order
	display := make([]*scene.Object, 0, n)
	user := p.graph.UserObjects()
	for i := len(user) - 1; i >= 0; i-- {
		display = append(display, user[i])
	}

	moved := display[from]
	display = append(display[:from], display[from+1:]...)
	rest := make([]*scene.Object, 0, n)
	rest = append(rest, display[:to]...)
	rest = append(rest, moved)
	rest = append(rest, display[to:]...)

	order := make([]*scene.Object, 0, n)
	for i := len(rest) - 1; i >= 0; i-- {
		order = append(order, rest[i])
	}
	return p.graph.RestackUserObjects(order)
}
