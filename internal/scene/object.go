/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

// Scene objects are the retained-mode items of a certificate page. A single
// struct with a Kind discriminator keeps the serialized form close to the
// backend document contract while hit-testing stays per-variant.

import (
	"image"
	"math"

	"github.com/google/uuid"

	"certstudio/internal/geom"
)

// Kind discriminates object variants.
type Kind string

const (
	KindRect        Kind = "rect"
	KindCircle      Kind = "circle"
	KindTriangle    Kind = "triangle"
	KindLine        Kind = "line"
	KindText        Kind = "list-text"
	KindImage       Kind = "image"
	KindPlaceholder Kind = "placeholder"
)

// Reserved role names carried in Object.Name.
const (
	NameBackgroundRect  = "backgroundRect"
	NameBackgroundImage = "backgroundImage"
)

// Controls describes which interactive handles a variant exposes.
type Controls struct {
	ScaleX bool
	ScaleY bool
	Rotate bool
	Skew   bool
}

// DefaultControls is the policy for ordinary objects.
func DefaultControls() Controls {
	return Controls{ScaleX: true, ScaleY: true, Rotate: true, Skew: true}
}

// LineControls keeps only the endpoint handles: vertical scaling and skew are locked.
func LineControls() Controls { return Controls{ScaleX: true} }

// ListSettings carries the list formatting state of a text object.
// Type matches listtext.ListType values ("none", "bullet", "numbered", "arrow").
type ListSettings struct {
	Type        string  `json:"listType"`
	Indent      int     `json:"listIndent"`
	ItemSpacing float64 `json:"listItemSpacing"`
}

// FontSettings carries typography attributes of a text object.
type FontSettings struct {
	Family        string  `json:"fontFamily"`
	Size          float64 `json:"fontSize"`
	Weight        string  `json:"fontWeight"` // "normal" or "bold"
	Style         string  `json:"fontStyle"`  // "normal" or "italic"
	Underline     bool    `json:"underline"`
	Align         string  `json:"textAlign"`
	LineHeight    float64 `json:"lineHeight"`
	LetterSpacing float64 `json:"charSpacing"`
}

// Object is a polymorphic scene-graph item. Position is center-origin in
// logical page units; the page transform, not the object, carries zoom.
type Object struct {
	id   string
	Kind Kind
	// Name is the semantic role tag; it must survive serialization explicitly.
	Name string

	Left, Top      float64
	Width, Height  float64
	ScaleX, ScaleY float64
	Angle          float64 // radians
	Opacity        float64 // 0..1
	Visible        bool
	Locked         bool // non-selectable + non-interactive

	Fill         string
	Stroke       string
	StrokeWidth  float64
	CornerRadius float64 // rect only

	Text string
	List ListSettings
	Font FontSettings

	// SourceURL is the original image URL; it is the one that serializes.
	// ResolvedURL is the render-time (possibly proxied) URL and never leaks
	// into serialized output.
	SourceURL   string
	ResolvedURL string
	// Tainted marks an image that was loaded from a cross-origin URL without
	// the proxy; rasterizing such a page must fail with a remediation hint.
	Tainted bool
	// Bitmap holds decoded pixels for rasterization. Never serialized.
	Bitmap image.Image

	Controls Controls
}

func newObject(kind Kind) *Object {
	return &Object{
		id:       uuid.NewString(),
		Kind:     kind,
		ScaleX:   1,
		ScaleY:   1,
		Opacity:  1,
		Visible:  true,
		Controls: DefaultControls(),
	}
}

// ID returns the unique identifier assigned at creation. It never changes
// during the object's lifetime; only full deserialization assigns fresh ids.
func (o *Object) ID() string { return o.id }

// Selectable reports whether the object can become the active selection.
func (o *Object) Selectable() bool {
	return !o.Locked && o.Name != NameBackgroundRect && o.Name != NameBackgroundImage
}

// Transform maps local, center-origin coordinates to page coordinates.
func (o *Object) Transform() geom.Affine2D {
	return geom.Translate(o.Left, o.Top).
		Mul(geom.Rotate(o.Angle)).
		Mul(geom.Scale(o.ScaleX, o.ScaleY))
}

// Bounds returns the axis-aligned page-space bounding box.
func (o *Object) Bounds() geom.Rect {
	m := o.Transform()
	hw, hh := o.Width/2, o.Height/2
	corners := []geom.Pt{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: -hw, Y: hh}, {X: hw, Y: hh}}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p := m.Apply(c)
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return geom.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Hit tests a page-space point against the object's shape.
func (o *Object) Hit(p geom.Pt) bool {
	q := o.Transform().Invert().Apply(p)
	hw, hh := o.Width/2, o.Height/2
	switch o.Kind {
	case KindCircle:
		if hw == 0 || hh == 0 {
			return false
		}
		dx := q.X / hw
		dy := q.Y / hh
		return dx*dx+dy*dy <= 1
	case KindTriangle:
		// isoceles triangle: apex top-center, base at the bottom edge
		if hh == 0 {
			return false
		}
		t := (q.Y + hh) / (2 * hh) // 0 at apex row, 1 at base
		if t < 0 || t > 1 {
			return false
		}
		return math.Abs(q.X) <= t*hw
	case KindLine:
		// distance to the horizontal center segment, padded for grabbing
		pad := math.Max(o.StrokeWidth, 4)
		return math.Abs(q.X) <= hw && math.Abs(q.Y) <= pad/2+hh
	default:
		return math.Abs(q.X) <= hw && math.Abs(q.Y) <= hh
	}
}

// Clone returns a deep copy with a fresh unique id. The decoded bitmap is
// shared; pixel data is immutable once loaded.
func (o *Object) Clone() *Object {
	c := *o
	c.id = uuid.NewString()
	return &c
}

// NewRect creates a rectangle shape.
func NewRect(w, h float64, fill, stroke string, strokeWidth, cornerRadius float64) *Object {
	o := newObject(KindRect)
	o.Width, o.Height = w, h
	o.Fill, o.Stroke, o.StrokeWidth = fill, stroke, strokeWidth
	o.CornerRadius = cornerRadius
	return o
}

// NewCircle creates an ellipse shape inside w x h.
func NewCircle(w, h float64, fill, stroke string, strokeWidth float64) *Object {
	o := newObject(KindCircle)
	o.Width, o.Height = w, h
	o.Fill, o.Stroke, o.StrokeWidth = fill, stroke, strokeWidth
	return o
}

// NewTriangle creates an isoceles triangle shape.
func NewTriangle(w, h float64, fill, stroke string, strokeWidth float64) *Object {
	o := newObject(KindTriangle)
	o.Width, o.Height = w, h
	o.Fill, o.Stroke, o.StrokeWidth = fill, stroke, strokeWidth
	return o
}

// NewLine creates a horizontal line. Lines have no fill and enforce a minimum
// stroke width of 2 so endpoint handles stay grabbable.
func NewLine(length float64, stroke string, strokeWidth float64) *Object {
	o := newObject(KindLine)
	o.Width = length
	o.Stroke = stroke
	o.StrokeWidth = math.Max(strokeWidth, 2)
	o.Controls = LineControls()
	return o
}

// NewText creates a list-capable text object.
func NewText(text string, font FontSettings) *Object {
	o := newObject(KindText)
	o.Text = text
	o.Font = font
	o.List = ListSettings{Type: "none"}
	if o.Font.Size <= 0 {
		o.Font.Size = 16
	}
	if o.Font.LineHeight <= 0 {
		o.Font.LineHeight = 1.16
	}
	return o
}

// NewImage creates an image object. source is the original URL, resolved the
// URL actually fetched (identical when no proxying was needed).
func NewImage(name, source, resolved string, img image.Image) *Object {
	o := newObject(KindImage)
	o.Name = name
	o.SourceURL = source
	o.ResolvedURL = resolved
	o.Bitmap = img
	if img != nil {
		b := img.Bounds()
		o.Width = float64(b.Dx())
		o.Height = float64(b.Dy())
	}
	return o
}

// NewPlaceholder creates a named, dashed stand-in for an image slot resolved
// later by the backend. It carries no URL.
func NewPlaceholder(name string) *Object {
	o := newObject(KindPlaceholder)
	o.Name = name
	o.Width, o.Height = 200, 100
	o.Fill = "#f3f4f6"
	o.Stroke = "#9ca3af"
	o.StrokeWidth = 1
	return o
}
