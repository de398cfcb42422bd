/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

// JSON serialization works against an explicit allow-list of fields. The
// semantic name tag, list settings and the original image URL are part of
// the contract with the backend document record and are always emitted;
// nothing is trusted to round-trip implicitly.

import (
	"encoding/json"
	"fmt"
)

const documentVersion = "1.0"

type objectJSON struct {
	Type            string  `json:"type"`
	Name            string  `json:"name,omitempty"`
	Left            float64 `json:"left"`
	Top             float64 `json:"top"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	ScaleX          float64 `json:"scaleX"`
	ScaleY          float64 `json:"scaleY"`
	Angle           float64 `json:"angle,omitempty"`
	Opacity         float64 `json:"opacity"`
	Visible         bool    `json:"visible"`
	Locked          bool    `json:"locked,omitempty"`
	Fill            string  `json:"fill,omitempty"`
	Stroke          string  `json:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty"`
	CornerRadius    float64 `json:"rx,omitempty"`
	Text            string  `json:"text,omitempty"`
	ListType        string  `json:"listType,omitempty"`
	ListIndent      int     `json:"listIndent,omitempty"`
	ListItemSpacing float64 `json:"listItemSpacing,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	FontStyle       string  `json:"fontStyle,omitempty"`
	Underline       bool    `json:"underline,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"`
	CharSpacing     float64 `json:"charSpacing,omitempty"`
	// Src is always the original image URL; the proxy never leaks here.
	Src string `json:"src,omitempty"`
}

type graphJSON struct {
	Version string       `json:"version"`
	Objects []objectJSON `json:"objects"`
}

func encodeObject(o *Object) objectJSON {
	return objectJSON{
		Type:            string(o.Kind),
		Name:            o.Name,
		Left:            o.Left,
		Top:             o.Top,
		Width:           o.Width,
		Height:          o.Height,
		ScaleX:          o.ScaleX,
		ScaleY:          o.ScaleY,
		Angle:           o.Angle,
		Opacity:         o.Opacity,
		Visible:         o.Visible,
		Locked:          o.Locked,
		Fill:            o.Fill,
		Stroke:          o.Stroke,
		StrokeWidth:     o.StrokeWidth,
		CornerRadius:    o.CornerRadius,
		Text:            o.Text,
		ListType:        o.List.Type,
		ListIndent:      o.List.Indent,
		ListItemSpacing: o.List.ItemSpacing,
		FontFamily:      o.Font.Family,
		FontSize:        o.Font.Size,
		FontWeight:      o.Font.Weight,
		FontStyle:       o.Font.Style,
		Underline:       o.Font.Underline,
		TextAlign:       o.Font.Align,
		LineHeight:      o.Font.LineHeight,
		CharSpacing:     o.Font.LetterSpacing,
		Src:             o.SourceURL,
	}
}

func decodeObject(j objectJSON) (*Object, error) {
	kind := Kind(j.Type)
	switch kind {
	case KindRect, KindCircle, KindTriangle, KindLine, KindText, KindImage, KindPlaceholder:
	default:
		return nil, fmt.Errorf("unknown object type %q", j.Type)
	}
	o := newObject(kind)
	o.Name = j.Name
	o.Left, o.Top = j.Left, j.Top
	o.Width, o.Height = j.Width, j.Height
	o.ScaleX, o.ScaleY = j.ScaleX, j.ScaleY
	if o.ScaleX == 0 {
		o.ScaleX = 1
	}
	if o.ScaleY == 0 {
		o.ScaleY = 1
	}
	o.Angle = j.Angle
	o.Opacity = j.Opacity
	o.Visible = j.Visible
	o.Locked = j.Locked
	o.Fill, o.Stroke, o.StrokeWidth = j.Fill, j.Stroke, j.StrokeWidth
	o.CornerRadius = j.CornerRadius
	o.Text = j.Text
	o.List = ListSettings{Type: j.ListType, Indent: j.ListIndent, ItemSpacing: j.ListItemSpacing}
	if o.List.Type == "" {
		o.List.Type = "none"
	}
	o.Font = FontSettings{
		Family:        j.FontFamily,
		Size:          j.FontSize,
		Weight:        j.FontWeight,
		Style:         j.FontStyle,
		Underline:     j.Underline,
		Align:         j.TextAlign,
		LineHeight:    j.LineHeight,
		LetterSpacing: j.CharSpacing,
	}
	o.SourceURL = j.Src
	if kind == KindLine {
		o.Controls = LineControls()
	}
	return o, nil
}

// MarshalObjects serializes the stacking order excluding the background
// rectangle. The background image serializes with its role tag so loading
// can re-pin it.
func (g *Graph) MarshalObjects() ([]byte, error) {
	doc := graphJSON{Version: documentVersion}
	for _, o := range g.objects {
		if o.Name == NameBackgroundRect {
			continue
		}
		doc.Objects = append(doc.Objects, encodeObject(o))
	}
	return json.Marshal(doc)
}

// LoadObjects clears the graph and deserializes data. Every loaded object
// receives a fresh unique id; ids are not expected to survive round-trips
// through the backend. A missing background rectangle is synthesized and a
// background-image-role object is re-locked and pinned to index 1 regardless
// of its serialized position.
func (g *Graph) LoadObjects(data []byte) error {
	var doc graphJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		// tolerate a bare object array
		if aerr := json.Unmarshal(data, &doc.Objects); aerr != nil {
			return fmt.Errorf("parse scene json: %w", err)
		}
	}

	g.objects = nil
	g.ensureBackground()

	var bgImage *Object
	for _, j := range doc.Objects {
		o, err := decodeObject(j)
		if err != nil {
			return err
		}
		if o.Name == NameBackgroundRect {
			// a stray serialized background rect is dropped; ours is canonical
			continue
		}
		if o.Name == NameBackgroundImage {
			bgImage = o
			continue
		}
		g.objects = append(g.objects, o)
	}
	if bgImage != nil {
		bgImage.Locked = true
		bgIdx := g.IndexOf(g.BackgroundRect())
		rest := make([]*Object, 0, len(g.objects)+1)
		rest = append(rest, g.objects[:bgIdx+1]...)
		rest = append(rest, bgImage)
		rest = append(rest, g.objects[bgIdx+1:]...)
		g.objects = rest
	}
	g.emit(Event{Kind: EventCleared})
	return nil
}
