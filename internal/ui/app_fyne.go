//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"certstudio/internal/crash"
	"certstudio/internal/document"
	"certstudio/internal/export"
	applog "certstudio/internal/log"
	"certstudio/internal/scene"
	"certstudio/internal/session"
	"certstudio/internal/storage"
	"certstudio/internal/version"
)

// Run launches the desktop preview window. workspaceDir may be empty for a
// fresh unsaved document.
func Run(workspaceDir string) error {
	l := applog.WithComponent("ui")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	a := app.New()
	w := a.NewWindow(fmt.Sprintf("CertStudio %s", version.String()))
	w.Resize(fyne.NewSize(1100, 760))

	coord := document.New(document.Config{Orientation: scene.Landscape, AutoMount: true})

	if workspaceDir != "" {
		abs, _ := filepath.Abs(workspaceDir)
		h, err := storage.Open(abs)
		if err != nil {
			return fmt.Errorf("open workspace: %w", err)
		}
		wh = h
		l.Info("workspace opened", slog.String("root", abs))
		if wh.Certificate.CanvasWidth < wh.Certificate.CanvasHeight {
			coord = document.New(document.Config{Orientation: scene.Portrait, AutoMount: true})
		}
		data := &document.Data{
			FrontJSON: wh.Certificate.FrontJSON,
			BackJSON:  wh.Certificate.BackJSON,
			Width:     wh.Certificate.CanvasWidth,
			Height:    wh.Certificate.CanvasHeight,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := coord.LoadDocumentData(ctx, data); err != nil {
			return fmt.Errorf("load document: %w", err)
		}
	}

	view := newPageView(coord)
	status := widget.NewLabel("")
	refresh := func() {
		view.redraw()
		s := currentSession(coord)
		status.SetText(statusLine(coord.Viewed()+1, len(coord.Pages()), s.Zoom()))
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), func() {
			s := currentSession(coord)
			s.SetZoom(s.Zoom() + session.WheelStep)
			refresh()
		}),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() {
			s := currentSession(coord)
			s.SetZoom(s.Zoom() - session.WheelStep)
			refresh()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() {
			coord.SetViewed(coord.Viewed() - 1)
			refresh()
		}),
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() {
			coord.SetViewed(coord.Viewed() + 1)
			refresh()
		}),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() {
			coord.AddPage()
			refresh()
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			exportPDF(w, coord, wh)
		}),
	)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, view.widget()))
	refresh()
	w.ShowAndRun()
	return nil
}

func currentSession(c *document.Coordinator) *session.Session {
	return c.Pages()[c.Viewed()].Session
}

// pageView renders the viewed page through the export rasterizer. The
// preview reuses the PDF pipeline so what you see is what exports.
type pageView struct {
	coord *document.Coordinator
	img   *canvas.Image
	r     *export.Rasterizer
}

func newPageView(c *document.Coordinator) *pageView {
	v := &pageView{
		coord: c,
		img:   canvas.NewImageFromImage(nil),
		// Multiplier 1 keeps interactive redraws cheap; export uses its own rasterizer.
		r: &export.Rasterizer{Multiplier: 1},
	}
	v.img.FillMode = canvas.ImageFillContain
	return v
}

func (v *pageView) widget() fyne.CanvasObject { return v.img }

func (v *pageView) redraw() {
	g := currentSession(v.coord).Graph()
	rendered, err := v.r.Render(g)
	if err != nil {
		applog.WithComponent("ui").Warn("preview render failed", slog.Any("err", err))
		return
	}
	v.img.Image = rendered
	v.img.Refresh()
}

func exportPDF(w fyne.Window, coord *document.Coordinator, wh *storage.WorkspaceHandle) {
	dir := os.TempDir()
	if wh != nil {
		dir = filepath.Join(wh.Root, "exports")
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("certificate-%s.pdf", time.Now().Format("20060102-150405")))

	f, err := os.Create(path)
	if err != nil {
		dialog.ShowError(err, w)
		return
	}
	defer f.Close()

	var graphs []*scene.Graph
	for _, p := range coord.Pages() {
		graphs = append(graphs, p.Session.Graph())
	}
	if err := export.WritePDF(f, graphs, &export.Rasterizer{}); err != nil {
		dialog.ShowError(err, w)
		return
	}
	dialog.ShowInformation("Export complete", fmt.Sprintf("PDF written to %s", path), w)
}
