/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"certstudio/internal/config"
	"certstudio/internal/crash"
	"certstudio/internal/document"
	"certstudio/internal/domain"
	"certstudio/internal/export"
	applog "certstudio/internal/log"
	"certstudio/internal/scene"
	"certstudio/internal/storage"
	"certstudio/internal/ui"
	"certstudio/internal/version"
)

func usage() {
	fmt.Println("CertStudio — certificate template editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  certstudio version|-v|--version               Show version")
	fmt.Println("  certstudio init <dir> <name> [courseId]        Create a new workspace at <dir>")
	fmt.Println("  certstudio open <dir>                          Open workspace at <dir> and print summary")
	fmt.Println("  certstudio save <dir>                          Save workspace at <dir> (creates backup)")
	fmt.Println("  certstudio export-pdf <dir> [out.pdf]          Export the template pages as a PDF")
	fmt.Println("  certstudio ui [<dir>]                          Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var wh *storage.WorkspaceHandle
	defer func() { crash.Recover(wh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("CertStudio — certificate template editor")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			courseID := int64(1)
			if len(args) >= 5 {
				if n, err := strconv.ParseInt(args[4], 10, 64); err == nil {
					courseID = n
				}
			}
			abs, _ := filepath.Abs(dir)
			l.Info("init workspace", slog.String("root", abs), slog.String("name", name))
			cert := domain.Certificate{
				Name:         name,
				CourseID:     courseID,
				CanvasWidth:  scene.PageSize(scene.Landscape).W,
				CanvasHeight: scene.PageSize(scene.Landscape).H,
				FrontJSON:    `{"objects":[]}`,
				Active:       true,
			}
			h, err := storage.InitWorkspace(abs, cert)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			fmt.Println("Created workspace at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open workspace", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			fmt.Printf("Opened template: %s\n", h.Certificate.Name)
			pages := 1
			if h.Certificate.BackJSON != nil {
				pages = 2
			}
			fmt.Printf("Pages: %d  Canvas: %.0fx%.0f\n", pages, h.Certificate.CanvasWidth, h.Certificate.CanvasHeight)
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("save workspace", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved workspace and created a backup of the previous manifest (if any).")
			return
		case "export-pdf":
			if len(args) < 3 {
				fmt.Println("export-pdf requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			wh = h
			out := filepath.Join(abs, "exports", fmt.Sprintf("%s.pdf", time.Now().Format("20060102-150405")))
			if len(args) >= 4 {
				out = args[3]
			}
			if err := exportPDF(h, out); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported PDF to", out)
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

// exportPDF replays the stored page payloads into a fresh document and
// renders them through the supersampling rasterizer.
func exportPDF(wh *storage.WorkspaceHandle, out string) error {
	cfg, _, err := config.Load()
	if err != nil {
		return err
	}

	orientation := scene.Landscape
	if wh.Certificate.CanvasWidth < wh.Certificate.CanvasHeight {
		orientation = scene.Portrait
	}
	coord := document.New(document.Config{Orientation: orientation, AutoMount: true})
	data := &document.Data{
		FrontJSON: wh.Certificate.FrontJSON,
		BackJSON:  wh.Certificate.BackJSON,
		Width:     wh.Certificate.CanvasWidth,
		Height:    wh.Certificate.CanvasHeight,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := coord.LoadDocumentData(ctx, data); err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	var graphs []*scene.Graph
	for _, p := range coord.Pages() {
		graphs = append(graphs, p.Session.Graph())
	}
	r := &export.Rasterizer{Multiplier: float64(cfg.Editor.ExportMultiplier)}
	return export.WritePDF(f, graphs, r)
}
