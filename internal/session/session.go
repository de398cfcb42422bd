/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session hosts one scene graph per page and translates pointer,
// keyboard and clipboard input into scene mutations. It owns the active
// selection and the single open text editor.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"certstudio/internal/geom"
	"certstudio/internal/imageproxy"
	"certstudio/internal/listtext"
	applog "certstudio/internal/log"
	"certstudio/internal/scene"
)

const (
	MinZoom   = 30
	MaxZoom   = 300
	WheelStep = 5
	// BaseScale is the rendering scale at 100% zoom.
	BaseScale = 0.6

	// SettleDelay is how long a freshly created text object waits before
	// entering edit mode, giving the surface time to lay it out.
	SettleDelay = 200 * time.Millisecond

	// ImageFitSide is the logical length an added image's longer side is
	// scaled to.
	ImageFitSide = 200.0
)

const bebasNeue = "Bebas Neue"

// ImageFetcher loads and decodes an image, proxying cross-origin URLs.
// *imageproxy.Client satisfies it.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*imageproxy.Result, error)
}

// Clipboard abstracts the host clipboard for copy/cut/paste in text edit.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// FontWaiter blocks until a font family is usable, so text can enter edit
// mode with correct metrics. *textlayout.FontLibrary satisfies it.
type FontWaiter interface {
	WaitUntilAvailable(family string, timeout time.Duration) bool
}

// DeferFunc schedules fn after d. The default runs fn immediately: the scene
// graph batches mutations and does not re-render on every set, so the settle
// delay only matters for hosts with an eagerly rendering surface.
type DeferFunc func(d time.Duration, fn func())

// Focus enforces the single-editor rule: at most one text object is in edit
// mode at a time, across all pages.
type Focus struct {
	active *Editor
}

// NewFocus creates an empty edit-focus holder shared by all sessions of a
// document.
func NewFocus() *Focus { return &Focus{} }

// Active returns the open editor, or nil.
func (f *Focus) Active() *Editor { return f.active }

func (f *Focus) acquire(ed *Editor) {
	if f.active != nil && f.active != ed {
		f.active.close()
	}
	f.active = ed
}

func (f *Focus) release(ed *Editor) {
	if f.active == ed {
		f.active = nil
	}
}

// Config wires a session's collaborators.
type Config struct {
	Orientation scene.Orientation
	Focus       *Focus
	Images      ImageFetcher
	Clipboard   Clipboard
	Fonts       FontWaiter
	Defer       DeferFunc
	Now         func() time.Time
}

// Session is the canvas state for one page.
type Session struct {
	graph *scene.Graph
	focus *Focus

	zoom      int
	selection []*scene.Object

	images  ImageFetcher
	clip    Clipboard
	fonts   FontWaiter
	deferFn DeferFunc
	now     func() time.Time

	click clickState
	log   *slog.Logger
}

// New creates a session with a fresh scene graph for the given orientation.
func New(cfg Config) *Session {
	if cfg.Orientation == "" {
		cfg.Orientation = scene.Landscape
	}
	if cfg.Focus == nil {
		cfg.Focus = NewFocus()
	}
	if cfg.Defer == nil {
		cfg.Defer = func(_ time.Duration, fn func()) { fn() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Session{
		graph:   scene.NewGraph(cfg.Orientation),
		focus:   cfg.Focus,
		zoom:    100,
		images:  cfg.Images,
		clip:    cfg.Clipboard,
		fonts:   cfg.Fonts,
		deferFn: cfg.Defer,
		now:     cfg.Now,
		log:     applog.WithComponent("session"),
	}
}

// Graph exposes the page's scene graph.
func (s *Session) Graph() *scene.Graph { return s.graph }

// Zoom returns the current zoom percentage.
func (s *Session) Zoom() int { return s.zoom }

// SetZoom clamps z to [MinZoom, MaxZoom] and returns the applied value.
func (s *Session) SetZoom(z int) int {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	s.zoom = z
	return s.zoom
}

// Wheel adjusts zoom by WheelStep per notch (positive notches zoom in) and
// returns the new value.
func (s *Session) Wheel(notches int) int {
	return s.SetZoom(s.zoom + notches*WheelStep)
}

// Scale is the rendering transform factor. The transform carries the zoom;
// object dimensions stay in logical page units.
func (s *Session) Scale() float64 { return BaseScale * float64(s.zoom) / 100 }

// SurfaceSize is the drawable surface size in device units.
func (s *Session) SurfaceSize() geom.Size {
	p := scene.PageSize(s.graph.Orientation())
	k := s.Scale()
	return geom.Size{W: p.W * k, H: p.H * k}
}

// SetOrientation transposes the page.
func (s *Session) SetOrientation(o scene.Orientation) { s.graph.SetOrientation(o) }

// Selection returns the active selection, topmost first as selected.
func (s *Session) Selection() []*scene.Object { return s.selection }

// Selected returns the primary selected object, or nil.
func (s *Session) Selected() *scene.Object {
	if len(s.selection) == 0 {
		return nil
	}
	return s.selection[0]
}

// Select makes obj the sole active selection. Selecting anything exits any
// open text editor first.
func (s *Session) Select(obj *scene.Object) {
	if obj == nil || !obj.Selectable() {
		return
	}
	if ed := s.focus.Active(); ed != nil && ed.obj != obj {
		ed.Close()
	}
	s.selection = []*scene.Object{obj}
}

// SelectMany replaces the selection with the given objects.
func (s *Session) SelectMany(objs []*scene.Object) {
	if ed := s.focus.Active(); ed != nil {
		ed.Close()
	}
	s.selection = s.selection[:0]
	for _, o := range objs {
		if o != nil && o.Selectable() {
			s.selection = append(s.selection, o)
		}
	}
}

// ClearSelection drops the selection and exits any open text editor.
func (s *Session) ClearSelection() {
	if ed := s.focus.Active(); ed != nil {
		ed.Close()
	}
	s.selection = nil
}

func (s *Session) dropFromSelection(obj *scene.Object) {
	kept := s.selection[:0]
	for _, o := range s.selection {
		if o != obj {
			kept = append(kept, o)
		}
	}
	s.selection = kept
}

func (s *Session) center() geom.Pt {
	p := scene.PageSize(s.graph.Orientation())
	return geom.Pt{X: p.W / 2, Y: p.H / 2}
}

// ShapeSettings are the style attributes for a new shape.
type ShapeSettings struct {
	Fill         string
	Stroke       string
	StrokeWidth  float64
	CornerRadius float64
}

// AddShape creates a shape of the given kind at the canvas center and makes
// it the active selection.
func (s *Session) AddShape(kind scene.Kind, st ShapeSettings) (*scene.Object, error) {
	var obj *scene.Object
	switch kind {
	case scene.KindRect:
		obj = scene.NewRect(100, 100, st.Fill, st.Stroke, st.StrokeWidth, st.CornerRadius)
	case scene.KindCircle:
		obj = scene.NewCircle(100, 100, st.Fill, st.Stroke, st.StrokeWidth)
	case scene.KindTriangle:
		obj = scene.NewTriangle(100, 100, st.Fill, st.Stroke, st.StrokeWidth)
	case scene.KindLine:
		obj = scene.NewLine(150, st.Stroke, st.StrokeWidth)
	default:
		return nil, fmt.Errorf("add shape: unsupported kind %q", kind)
	}
	c := s.center()
	obj.Left, obj.Top = c.X, c.Y
	s.graph.Add(obj)
	s.Select(obj)
	return obj, nil
}

// normalizeFont applies the Bebas Neue special case: that typeface renders
// with broken bold weight and visible tracking, so letter spacing is forced
// to 0 and weight to normal whatever the caller asked for.
func normalizeFont(f *scene.FontSettings) {
	if strings.EqualFold(f.Family, bebasNeue) {
		f.LetterSpacing = 0
		f.Weight = "normal"
	}
}

// AddText creates a list-capable text object at the canvas center, selects
// it and, after the settle delay, enters edit mode with all text selected.
func (s *Session) AddText(text string, font scene.FontSettings) *scene.Object {
	normalizeFont(&font)
	obj := scene.NewText(text, font)
	c := s.center()
	obj.Left, obj.Top = c.X, c.Y
	s.graph.Add(obj)
	s.Select(obj)
	s.deferFn(SettleDelay, func() {
		// the page may have been torn down or the object removed meanwhile
		if s.graph.ByID(obj.ID()) == nil {
			return
		}
		if s.fonts != nil {
			s.fonts.WaitUntilAvailable(obj.Font.Family, SettleDelay)
		}
		if ed := s.EnterEdit(obj); ed != nil {
			ed.SelectAll()
		}
	})
	return obj
}

// AddImage fetches url (through the proxy when cross-origin), scales the
// image so its longer side is ImageFitSide logical units, centers it and
// selects it. On final load failure no object is added.
func (s *Session) AddImage(ctx context.Context, url, name string) (*scene.Object, error) {
	if s.images == nil {
		return nil, fmt.Errorf("add image: no image fetcher configured")
	}
	res, err := s.images.Fetch(ctx, url)
	if err != nil {
		s.log.Warn("image load failed", slog.String("url", url), slog.Any("err", err))
		return nil, err
	}
	obj := scene.NewImage(name, url, res.ResolvedURL, res.Image)
	obj.Tainted = res.Tainted
	if longer := math.Max(obj.Width, obj.Height); longer > 0 {
		k := ImageFitSide / longer
		obj.ScaleX, obj.ScaleY = k, k
	}
	c := s.center()
	obj.Left, obj.Top = c.X, c.Y
	s.graph.Add(obj)
	s.Select(obj)
	return obj, nil
}

// AddPlaceholder creates a named dashed stand-in for an image slot and
// selects it.
func (s *Session) AddPlaceholder(name string) *scene.Object {
	obj := scene.NewPlaceholder(name)
	c := s.center()
	obj.Left, obj.Top = c.X, c.Y
	s.graph.Add(obj)
	s.Select(obj)
	return obj
}

// ApplyAsBackground removes target from the normal stacking order and
// installs a locked, cover-scaled clone as the page background image,
// evicting any prior one. The scene is left unchanged on failure.
func (s *Session) ApplyAsBackground(target *scene.Object) error {
	if target == nil || target.Kind != scene.KindImage {
		return fmt.Errorf("apply as background: target is not an image")
	}
	if s.graph.ByID(target.ID()) == nil {
		return fmt.Errorf("apply as background: image no longer on the page")
	}
	// validate up front so a failing install cannot evict the prior
	// background and then bail
	if target.Bitmap == nil && target.ResolvedURL == "" {
		return fmt.Errorf("apply as background: source image is disposed")
	}
	if target.Width <= 0 || target.Height <= 0 {
		return fmt.Errorf("apply as background: image has no dimensions")
	}
	bg := target.Clone()
	if err := s.graph.SetBackgroundImage(bg); err != nil {
		return err
	}
	if err := s.graph.Remove(target); err != nil {
		return err
	}
	s.dropFromSelection(target)
	return nil
}

// DeleteObject removes target unless it is a protected background object,
// in which case the request is silently refused. Clears the selection entry
// for the target if it was selected.
func (s *Session) DeleteObject(target *scene.Object) {
	if target == nil {
		return
	}
	if ed := s.focus.Active(); ed != nil && ed.obj == target {
		ed.Close()
	}
	if err := s.graph.Remove(target); err != nil {
		// protected background object; expected and non-fatal
		return
	}
	s.dropFromSelection(target)
}

// DeleteSelection removes every selected object that is not protected.
func (s *Session) DeleteSelection() {
	for _, o := range append([]*scene.Object(nil), s.selection...) {
		s.DeleteObject(o)
	}
}

// Duplicate clones every member of the active selection, offset by +10/+10,
// and selects the clones. Returns the clones in selection order.
func (s *Session) Duplicate() []*scene.Object {
	if len(s.selection) == 0 {
		return nil
	}
	clones := make([]*scene.Object, 0, len(s.selection))
	for _, o := range s.selection {
		c := o.Clone()
		c.Left += 10
		c.Top += 10
		s.graph.Add(c)
		clones = append(clones, c)
	}
	s.SelectMany(clones)
	return clones
}

// Editing returns the text object currently in edit mode on this session's
// page, or nil.
func (s *Session) Editing() *scene.Object {
	ed := s.focus.Active()
	if ed == nil || ed.session != s {
		return nil
	}
	return ed.obj
}

// EnterEdit opens a text editor on obj, closing any editor open elsewhere.
// Returns nil if obj is not a text object on this page.
func (s *Session) EnterEdit(obj *scene.Object) *Editor {
	if obj == nil || obj.Kind != scene.KindText || s.graph.ByID(obj.ID()) == nil {
		return nil
	}
	if ed := s.focus.Active(); ed != nil && ed.obj == obj {
		return ed
	}
	ed := &Editor{
		session: s,
		obj:     obj,
		engine: listtext.NewEngine(obj.Text, listtext.Settings{
			Type:        listtext.ListType(obj.List.Type),
			Indent:      obj.List.Indent,
			ItemSpacing: obj.List.ItemSpacing,
		}),
	}
	s.focus.acquire(ed)
	s.selection = []*scene.Object{obj}
	ed.sync()
	return ed
}

// Editor bridges one in-edit text object and its list-text engine, keeping
// the object's stored text and the selection bounds in step after each edit.
type Editor struct {
	session *Session
	obj     *scene.Object
	engine  *listtext.Engine

	selStart, selEnd int // rune offsets into the rendered text
}

// Object returns the text object being edited.
func (e *Editor) Object() *scene.Object { return e.obj }

// Text returns the rendered (marker-bearing) buffer.
func (e *Editor) Text() string { return e.engine.Text }

// Cursor returns the rune offset of the edit cursor.
func (e *Editor) Cursor() int { return e.engine.Cursor }

// Selection returns the selected rune range [start, end).
func (e *Editor) Selection() (start, end int) { return e.selStart, e.selEnd }

// sync writes the engine state back onto the object and signals the graph.
func (e *Editor) sync() {
	e.obj.Text = e.engine.Text
	e.obj.List = scene.ListSettings{
		Type:        string(e.engine.Settings.Type),
		Indent:      e.engine.Settings.Indent,
		ItemSpacing: e.engine.Settings.ItemSpacing,
	}
	e.session.graph.Touch(e.obj)
}

func (e *Editor) collapse() {
	e.selStart, e.selEnd = e.engine.Cursor, e.engine.Cursor
}

// SelectAll selects the entire buffer.
func (e *Editor) SelectAll() {
	e.selStart = 0
	e.selEnd = len([]rune(e.engine.Text))
	e.engine.Cursor = e.selEnd
}

// deleteRange removes the selected range from the raw buffer and lets the
// engine re-inject markers and remap the cursor.
func (e *Editor) deleteRange() {
	if e.selStart == e.selEnd {
		return
	}
	r := []rune(e.engine.Text)
	lo, hi := e.selStart, e.selEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi > len(r) {
		hi = len(r)
	}
	e.engine.Text = string(r[:lo]) + string(r[hi:])
	e.engine.Cursor = lo
	e.engine.UpdateProperties(e.engine.Settings)
	e.collapse()
}

// InsertText types s at the cursor, replacing any selected range first.
func (e *Editor) InsertText(s string) {
	e.deleteRange()
	e.engine.InsertText(s)
	e.collapse()
	e.sync()
}

// InsertNewline splits the current line; on an empty list line it ends the
// list instead (double-enter).
func (e *Editor) InsertNewline() {
	e.deleteRange()
	e.engine.InsertNewline()
	e.collapse()
	e.sync()
}

// DeleteBackward removes the rune before the cursor, or the selected range.
func (e *Editor) DeleteBackward() {
	if e.selStart != e.selEnd {
		e.deleteRange()
		e.sync()
		return
	}
	e.engine.DeleteBackward()
	e.collapse()
	e.sync()
}

// DeleteForward removes the rune after the cursor, or the selected range.
func (e *Editor) DeleteForward() {
	if e.selStart != e.selEnd {
		e.deleteRange()
		e.sync()
		return
	}
	if e.engine.Cursor < len([]rune(e.engine.Text)) {
		e.engine.Cursor++
		e.engine.DeleteBackward()
	}
	e.collapse()
	e.sync()
}

// Paste splices clipboard text at the cursor with marker sanitization on
// both sides, replacing any selected range first.
func (e *Editor) Paste(clip string) {
	e.deleteRange()
	e.engine.Paste(clip)
	e.collapse()
	e.sync()
}

// SelectedText returns the selected substring of the rendered buffer.
func (e *Editor) SelectedText() string {
	r := []rune(e.engine.Text)
	lo, hi := e.selStart, e.selEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi > len(r) {
		hi = len(r)
	}
	return string(r[lo:hi])
}

// SetListSettings merges new list settings, reprocessing markers and
// remapping the cursor.
func (e *Editor) SetListSettings(s listtext.Settings) {
	e.engine.UpdateProperties(s)
	e.collapse()
	e.sync()
}

// Close writes the buffer back and releases edit focus.
func (e *Editor) Close() {
	e.close()
	e.session.focus.release(e)
}

func (e *Editor) close() {
	e.sync()
}
