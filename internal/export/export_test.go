/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"certstudio/internal/scene"
)

func TestRenderDimensionsAndMinMultiplier(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	r := &Rasterizer{Multiplier: 1} // below the floor, raised to 4
	img, err := r.Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	wantW := int(scene.PageLongSide * MinMultiplier)
	wantH := int(scene.PageShortSide * MinMultiplier)
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Fatalf("raster size %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
	}
	// background rectangle paints the page white
	if c := img.RGBAAt(wantW/2, wantH/2); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("page center = %v, want white", c)
	}
}

func TestRenderFillsShape(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	rect := scene.NewRect(100, 100, "#ff0000", "", 0, 0)
	rect.Left, rect.Top = 200, 200
	g.Add(rect)

	r := &Rasterizer{}
	img, err := r.Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := img.RGBAAt(int(200*MinMultiplier), int(200*MinMultiplier))
	if c.R != 255 || c.G != 0 || c.B != 0 {
		t.Fatalf("shape center = %v, want red", c)
	}
	// outside the shape stays white
	out := img.RGBAAt(int(400*MinMultiplier), int(200*MinMultiplier))
	if out.R != 255 || out.G != 255 || out.B != 255 {
		t.Fatalf("outside = %v, want white", out)
	}
}

func TestRenderAppliesOpacity(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	rect := scene.NewRect(100, 100, "#000000", "", 0, 0)
	rect.Left, rect.Top = 200, 200
	rect.Opacity = 0.5
	g.Add(rect)

	img, err := (&Rasterizer{}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := img.RGBAAt(int(200*MinMultiplier), int(200*MinMultiplier))
	// half-opaque black over white lands near mid gray
	if c.R < 100 || c.R > 155 {
		t.Fatalf("blended value = %v, want mid gray", c)
	}
}

func TestRenderDrawsBitmap(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	g := scene.NewGraph(scene.Landscape)
	img := scene.NewImage("logo", "u", "u", src)
	img.Left, img.Top = 300, 300
	g.Add(img)

	out, err := (&Rasterizer{}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := out.RGBAAt(int(300*MinMultiplier), int(300*MinMultiplier))
	if c.B < 200 || c.R > 60 {
		t.Fatalf("image pixel = %v, want blue", c)
	}
}

func TestRenderRejectsTaintedImage(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	img := scene.NewImage("logo", "u", "u", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	img.Tainted = true
	g.Add(img)

	_, err := (&Rasterizer{}).Render(g)
	if !errors.Is(err, ErrTainted) {
		t.Fatalf("err = %v, want ErrTainted", err)
	}
}

func TestRenderSkipsInvisible(t *testing.T) {
	g := scene.NewGraph(scene.Landscape)
	rect := scene.NewRect(100, 100, "#00ff00", "", 0, 0)
	rect.Left, rect.Top = 200, 200
	rect.Visible = false
	g.Add(rect)

	img, err := (&Rasterizer{}).Render(g)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := img.RGBAAt(int(200*MinMultiplier), int(200*MinMultiplier))
	if c.G != 255 || c.R != 255 {
		t.Fatalf("invisible object painted: %v", c)
	}
}

func TestWritePDFBothOrientations(t *testing.T) {
	front := scene.NewGraph(scene.Landscape)
	back := scene.NewGraph(scene.Portrait)

	var buf bytes.Buffer
	if err := WritePDF(&buf, []*scene.Graph{front, back}, &Rasterizer{}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestWritePDFIsolatesPageFailures(t *testing.T) {
	good := scene.NewGraph(scene.Landscape)
	bad := scene.NewGraph(scene.Landscape)
	img := scene.NewImage("logo", "u", "u", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	img.Tainted = true
	bad.Add(img)

	var buf bytes.Buffer
	err := WritePDF(&buf, []*scene.Graph{bad, good}, &Rasterizer{})
	if err == nil {
		t.Fatal("expected per-page error")
	}
	if !errors.Is(err, ErrTainted) {
		t.Fatalf("taint not distinguishable: %v", err)
	}
	var pe *PageError
	if !errors.As(err, &pe) || pe.Page != 1 {
		t.Fatalf("page error = %+v", pe)
	}
	if buf.Len() == 0 {
		t.Fatal("surviving page was not exported")
	}
}

func TestWritePDFAllPagesFailed(t *testing.T) {
	bad := scene.NewGraph(scene.Landscape)
	img := scene.NewImage("logo", "u", "u", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	img.Tainted = true
	bad.Add(img)

	var buf bytes.Buffer
	if err := WritePDF(&buf, []*scene.Graph{bad}, &Rasterizer{}); err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Fatal("output written despite total failure")
	}
}
