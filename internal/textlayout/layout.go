/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for text measurement behind deterministic interfaces so the
// rasterizer and tests never depend on a live font environment.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float64
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Line is one measured text line.
type Line struct {
	Text  string
	Width float64
}

// Block is the result of measuring multi-line text.
type Block struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
}

// MeasureLines splits text on newlines and measures each line with the
// resolved face. lineHeight is a multiplier over the face's natural height.
func MeasureLines(provider Provider, spec FontSpec, text string, lineHeight float64) Block {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	if lineHeight <= 0 {
		lineHeight = 1.16
	}
	natural := met.Ascent + met.Descent + met.LineGap
	b := Block{Metrics: met}
	for _, l := range strings.Split(text, "\n") {
		w := advance(d, l)
		b.Lines = append(b.Lines, Line{Text: l, Width: w})
		if w > b.Width {
			b.Width = w
		}
		b.Height += natural * lineHeight
	}
	return b
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure provides a quick single-run width/height measurement.
func Measure(provider Provider, spec FontSpec, text string) (w, h float64) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	d := &font.Drawer{Face: face}
	return advance(d, text), met.Ascent + met.Descent
}
