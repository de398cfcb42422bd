/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export rasterizes certificate pages and writes them into a
// multi-page PDF, one full-bleed A4 page per document page.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"certstudio/internal/geom"
	"certstudio/internal/listtext"
	"certstudio/internal/scene"
	"certstudio/internal/textlayout"
)

// MinMultiplier is the lowest allowed supersampling factor for print quality.
const MinMultiplier = 4.0

// ErrTainted marks a page that cannot be rasterized because an image was
// loaded cross-origin without the proxy.
var ErrTainted = errors.New("image is tainted by a cross-origin load: check that all images were loaded through the proxy")

// Rasterizer renders scene graphs to supersampled bitmaps.
type Rasterizer struct {
	// Fonts resolves text faces; BasicProvider when nil.
	Fonts textlayout.Provider
	// Multiplier is the supersampling factor, raised to MinMultiplier when
	// lower.
	Multiplier float64
}

func (r *Rasterizer) mult() float64 {
	if r.Multiplier < MinMultiplier {
		return MinMultiplier
	}
	return r.Multiplier
}

// Render rasterizes the graph back-to-front at the supersampling multiplier.
// The output dimensions are the logical page size times the multiplier.
func (r *Rasterizer) Render(g *scene.Graph) (*image.RGBA, error) {
	m := r.mult()
	size := scene.PageSize(g.Orientation())
	dst := image.NewRGBA(image.Rect(0, 0, int(size.W*m), int(size.H*m)))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	for _, o := range g.Objects() {
		if !o.Visible {
			continue
		}
		if o.Kind == scene.KindImage && o.Tainted {
			return nil, fmt.Errorf("object %q: %w", o.Name, ErrTainted)
		}
		switch o.Kind {
		case scene.KindImage:
			r.drawImage(dst, o, m)
		case scene.KindText:
			r.drawText(dst, o, m)
		case scene.KindPlaceholder:
			r.drawShape(dst, o, m)
			r.drawDashedBorder(dst, o, m)
		default:
			r.drawShape(dst, o, m)
		}
	}
	return dst, nil
}

// parseColor reads #rgb or #rrggbb. Empty or malformed values are
// fully transparent.
func parseColor(s string, opacity float64) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 3:
		_, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b)
		if err != nil {
			return color.RGBA{}
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		_, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b)
		if err != nil {
			return color.RGBA{}
		}
	default:
		return color.RGBA{}
	}
	a := uint8(math.Round(255 * clamp01(opacity)))
	// premultiplied
	return color.RGBA{
		R: uint8(uint16(r) * uint16(a) / 255),
		G: uint8(uint16(g) * uint16(a) / 255),
		B: uint8(uint16(b) * uint16(a) / 255),
		A: a,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func blend(dst *image.RGBA, x, y int, c color.RGBA) {
	if c.A == 0 {
		return
	}
	draw.Draw(dst, image.Rect(x, y, x+1, y+1), image.NewUniform(c), image.Point{}, draw.Over)
}

// drawShape scan-converts a shape through its own hit test, so fill coverage
// matches the editor's pointer behavior exactly.
func (r *Rasterizer) drawShape(dst *image.RGBA, o *scene.Object, m float64) {
	fill := parseColor(o.Fill, o.Opacity)
	stroke := parseColor(o.Stroke, o.Opacity)
	if o.Kind == scene.KindLine {
		fill = stroke
	}
	if fill.A == 0 && stroke.A == 0 {
		return
	}

	b := o.Bounds()
	x0 := int(math.Floor(b.X * m))
	y0 := int(math.Floor(b.Y * m))
	x1 := int(math.Ceil((b.X + b.W) * m))
	y1 := int(math.Ceil((b.Y + b.H) * m))
	edge := o.StrokeWidth

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := geom.Pt{X: (float64(x) + 0.5) / m, Y: (float64(y) + 0.5) / m}
			if !o.Hit(p) {
				continue
			}
			c := fill
			if stroke.A != 0 && edge > 0 && onEdge(o, p, edge) {
				c = stroke
			}
			blend(dst, x, y, c)
		}
	}
}

// onEdge reports whether p sits within the stroke band of the shape outline.
func onEdge(o *scene.Object, p geom.Pt, width float64) bool {
	// a point is on the edge when stepping outward by the stroke width in
	// any axis direction leaves the shape
	for _, d := range []geom.Pt{{X: width}, {X: -width}, {Y: width}, {Y: -width}} {
		if !o.Hit(geom.Pt{X: p.X + d.X, Y: p.Y + d.Y}) {
			return true
		}
	}
	return false
}

func (r *Rasterizer) drawImage(dst *image.RGBA, o *scene.Object, m float64) {
	if o.Bitmap == nil {
		return
	}
	b := o.Bounds()
	rect := image.Rect(
		int(math.Round(b.X*m)), int(math.Round(b.Y*m)),
		int(math.Round((b.X+b.W)*m)), int(math.Round((b.Y+b.H)*m)),
	)
	draw.CatmullRom.Scale(dst, rect, o.Bitmap, o.Bitmap.Bounds(), draw.Over, nil)
}

func (r *Rasterizer) drawDashedBorder(dst *image.RGBA, o *scene.Object, m float64) {
	c := parseColor(o.Stroke, o.Opacity)
	if c.A == 0 {
		return
	}
	b := o.Bounds()
	x0, y0 := int(b.X*m), int(b.Y*m)
	x1, y1 := int((b.X+b.W)*m), int((b.Y+b.H)*m)
	dash := int(6 * m / MinMultiplier)
	if dash < 2 {
		dash = 2
	}
	on := func(i int) bool { return (i/dash)%2 == 0 }
	for x := x0; x <= x1; x++ {
		if on(x - x0) {
			blend(dst, x, y0, c)
			blend(dst, x, y1, c)
		}
	}
	for y := y0; y <= y1; y++ {
		if on(y - y0) {
			blend(dst, x0, y, c)
			blend(dst, x1, y, c)
		}
	}
}

func (r *Rasterizer) drawText(dst *image.RGBA, o *scene.Object, m float64) {
	c := parseColor(o.Fill, o.Opacity)
	if c.A == 0 || o.Text == "" {
		return
	}
	provider := r.Fonts
	if provider == nil {
		provider = textlayout.BasicProvider{}
	}
	weight := 400
	if o.Font.Weight == "bold" {
		weight = 700
	}
	spec := textlayout.FontSpec{
		Family: o.Font.Family,
		SizePt: o.Font.Size * m,
		Weight: weight,
		Italic: o.Font.Style == "italic",
	}
	lineHeight := listtext.LineHeight(o.Font.LineHeight, o.List.ItemSpacing, o.Font.Size)
	block := textlayout.MeasureLines(provider, spec, o.Text, lineHeight)
	face, met := provider.Resolve(spec)
	natural := met.Ascent + met.Descent + met.LineGap

	// center-origin object position; lines flow downward from the top edge
	top := o.Top*m - block.Height/2
	left := o.Left*m - block.Width/2
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}

	for i, line := range block.Lines {
		x := left
		switch o.Font.Align {
		case "center":
			x = left + (block.Width-line.Width)/2
		case "right":
			x = left + block.Width - line.Width
		}
		y := top + natural*lineHeight*float64(i) + met.Ascent
		if o.Font.LetterSpacing > 0 {
			r.drawSpaced(d, line.Text, x, y, o.Font.LetterSpacing*m)
		} else {
			d.Dot = fixed.P(int(x), int(y))
			d.DrawString(line.Text)
		}
		if o.Font.Underline {
			uy := int(y + met.Descent/2)
			for px := int(x); px < int(x+line.Width); px++ {
				blend(dst, px, uy, c)
			}
		}
	}
}

func (r *Rasterizer) drawSpaced(d *font.Drawer, s string, x, y, spacing float64) {
	pos := x
	for _, ch := range s {
		d.Dot = fixed.P(int(pos), int(y))
		d.DrawString(string(ch))
		adv, _ := d.Face.GlyphAdvance(ch)
		pos += float64(adv>>6) + spacing
	}
}
