/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package listtext implements list formatting over a single text buffer.
// The stored string embeds the rendered markers in-line per line; every
// structural edit strips markers, works on the cleaned buffer, and
// re-renders. Cursor positions are rune offsets.
package listtext

import (
	"fmt"
	"regexp"
	"strings"
)

// ListType selects the marker family.
type ListType string

const (
	None     ListType = "none"
	Bullet   ListType = "bullet"
	Numbered ListType = "numbered"
	Arrow    ListType = "arrow"
)

const (
	bulletMarker = "• " // "• "
	arrowMarker  = "▸ " // "▸ "
)

// markerRe matches an optional leading bullet/arrow/number marker with its
// indentation. Numbered markers accept "." or ")" punctuation.
var markerRe = regexp.MustCompile(`^[ \t]*(?:[\x{2022}\x{25b8}][ \t]+|\d+[.)][ \t]+)`)

// MaxIndent bounds the indent level.
const MaxIndent = 5

// Settings is the list state carried per text object.
type Settings struct {
	Type        ListType
	Indent      int // 0..MaxIndent
	ItemSpacing float64
}

func clampIndent(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxIndent {
		return MaxIndent
	}
	return n
}

// stripMarker removes a leading marker (with indentation) from one line.
func stripMarker(line string) string {
	return markerRe.ReplaceAllString(line, "")
}

// markerFor returns the rendered marker prefix for a line. n is the 1-based
// item count for numbered lists.
func markerFor(t ListType, indent, n int) string {
	pad := strings.Repeat("  ", clampIndent(indent))
	switch t {
	case Bullet:
		return pad + bulletMarker
	case Arrow:
		return pad + arrowMarker
	case Numbered:
		return pad + fmt.Sprintf("%d. ", n)
	default:
		return ""
	}
}

// Process renders text with markers for the given list settings. Existing
// markers are stripped first, so reprocessing with the same settings is a
// no-op modulo renumbering (which is itself stable). Blank lines pass
// through unmarked and do not consume a numbering slot.
func Process(text string, t ListType, indent int) string {
	if t == None || t == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	n := 0
	for i, line := range lines {
		stripped := stripMarker(line)
		if strings.TrimSpace(stripped) == "" {
			out[i] = stripped
			continue
		}
		n++
		out[i] = markerFor(t, indent, n) + stripped
	}
	return strings.Join(out, "\n")
}

// CleanMarkers strips leading marker patterns per line, trims trailing
// semicolons and surrounding whitespace. Used for clipboard sanitization and
// as the inverse of Process on line content.
func CleanMarkers(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		s := stripMarker(line)
		s = strings.TrimSpace(s)
		s = strings.TrimRight(s, ";")
		out[i] = strings.TrimSpace(s)
	}
	return strings.Join(out, "\n")
}

// markerLen returns the rune length of the marker prefix of a rendered line.
func markerLen(line string) int {
	return len([]rune(markerRe.FindString(line)))
}

// LineHeight returns the effective line height: when item spacing is set the
// base line height grows by spacing/fontSize so list items visually separate
// without a paragraph-spacing primitive.
func LineHeight(base, spacing, fontSize float64) float64 {
	if base <= 0 {
		base = 1.16
	}
	if spacing > 0 && fontSize > 0 {
		return base + spacing/fontSize
	}
	return base
}

// Engine owns the live text buffer of one text object in edit mode.
type Engine struct {
	Text     string
	Cursor   int // rune offset into Text
	Settings Settings
}

// NewEngine wraps existing (possibly already marked) text.
func NewEngine(text string, s Settings) *Engine {
	s.Indent = clampIndent(s.Indent)
	return &Engine{Text: Process(text, s.Type, s.Indent), Settings: s}
}

// lines of the current rendered text.
func (e *Engine) lines() []string { return strings.Split(e.Text, "\n") }

// logicalPosition maps the cursor into (line index, marker-stripped offset).
func (e *Engine) logicalPosition() (line, offset int) {
	pos := e.Cursor
	for i, l := range e.lines() {
		n := len([]rune(l))
		if pos <= n {
			off := pos - markerLen(l)
			if off < 0 {
				off = 0
			}
			return i, off
		}
		pos -= n + 1 // consumed line + newline
	}
	ls := e.lines()
	last := len(ls) - 1
	return last, len([]rune(stripMarker(ls[last])))
}

// seekLogical places the cursor at (line, stripped offset) in the rendered
// text, skipping over the line's injected marker.
func (e *Engine) seekLogical(line, offset int) {
	ls := e.lines()
	if line < 0 {
		line = 0
	}
	if line >= len(ls) {
		line = len(ls) - 1
	}
	pos := 0
	for i := 0; i < line; i++ {
		pos += len([]rune(ls[i])) + 1
	}
	ml := markerLen(ls[line])
	maxOff := len([]rune(ls[line])) - ml
	if offset > maxOff {
		offset = maxOff
	}
	if offset < 0 {
		offset = 0
	}
	e.Cursor = pos + ml + offset
}

// UpdateProperties merges new list settings, reprocesses the buffer and
// restores the cursor to the equivalent logical position.
func (e *Engine) UpdateProperties(s Settings) {
	line, off := e.logicalPosition()
	e.applySettings(s)
	e.seekLogical(line, off)
}

// UpdatePropertiesAt is UpdateProperties with an explicit pending cursor
// override, used after structural edits where the generic recompute would
// land on the pre-edit position.
func (e *Engine) UpdatePropertiesAt(s Settings, pendingLine, pendingOffset int) {
	e.applySettings(s)
	e.seekLogical(pendingLine, pendingOffset)
}

func (e *Engine) applySettings(s Settings) {
	s.Indent = clampIndent(s.Indent)
	e.Settings = s
	cleaned := e.strippedLines()
	e.Text = Process(strings.Join(cleaned, "\n"), s.Type, s.Indent)
}

func (e *Engine) strippedLines() []string {
	ls := e.lines()
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = stripMarker(l)
	}
	return out
}

// InsertNewline handles the Enter key. Inside a list, pressing Enter on an
// already-empty list line deletes that line instead of opening a new empty
// item (double-enter ends the list block).
func (e *Engine) InsertNewline() {
	line, off := e.logicalPosition()
	stripped := e.strippedLines()

	if e.Settings.Type != None && strings.TrimSpace(stripped[line]) == "" && len(stripped) > 1 {
		next := append(append([]string{}, stripped[:line]...), stripped[line+1:]...)
		e.Text = strings.Join(next, "\n")
		e.applySettings(e.Settings)
		if line >= len(next) {
			line = len(next) - 1
		}
		e.seekLogical(line, 0)
		return
	}

	cur := []rune(stripped[line])
	if off > len(cur) {
		off = len(cur)
	}
	head, tail := string(cur[:off]), string(cur[off:])
	next := make([]string, 0, len(stripped)+1)
	next = append(next, stripped[:line]...)
	next = append(next, head, tail)
	next = append(next, stripped[line+1:]...)
	e.Text = strings.Join(next, "\n")
	e.UpdatePropertiesAt(e.Settings, line+1, 0)
}

// Paste splices clipboard text at the cursor. Markers are stripped from both
// the clipboard and the destination before splicing; reprocessing re-injects
// them and the cursor lands after the pasted content.
func (e *Engine) Paste(clip string) {
	line, off := e.logicalPosition()
	clean := CleanMarkers(clip)
	stripped := e.strippedLines()

	cur := []rune(stripped[line])
	if off > len(cur) {
		off = len(cur)
	}
	head, tail := string(cur[:off]), string(cur[off:])

	clipLines := strings.Split(clean, "\n")
	var next []string
	next = append(next, stripped[:line]...)
	if len(clipLines) == 1 {
		next = append(next, head+clipLines[0]+tail)
	} else {
		next = append(next, head+clipLines[0])
		next = append(next, clipLines[1:len(clipLines)-1]...)
		next = append(next, clipLines[len(clipLines)-1]+tail)
	}
	next = append(next, stripped[line+1:]...)
	e.Text = strings.Join(next, "\n")

	endLine := line + len(clipLines) - 1
	endOff := len([]rune(clipLines[len(clipLines)-1]))
	if len(clipLines) == 1 {
		endOff += len([]rune(head))
	}
	e.UpdatePropertiesAt(e.Settings, endLine, endOff)
}

// InsertText splices plain text (committed composition or keystrokes) at the
// cursor without newline interpretation.
func (e *Engine) InsertText(s string) {
	if strings.Contains(s, "\n") {
		e.Paste(s)
		return
	}
	line, off := e.logicalPosition()
	stripped := e.strippedLines()
	cur := []rune(stripped[line])
	if off > len(cur) {
		off = len(cur)
	}
	stripped[line] = string(cur[:off]) + s + string(cur[off:])
	e.Text = strings.Join(stripped, "\n")
	e.UpdatePropertiesAt(e.Settings, line, off+len([]rune(s)))
}

// DeleteBackward removes the rune before the cursor; at a line start it
// joins with the previous line (markers handled through the cleaned buffer).
func (e *Engine) DeleteBackward() {
	line, off := e.logicalPosition()
	stripped := e.strippedLines()
	if off > 0 {
		cur := []rune(stripped[line])
		if off > len(cur) {
			off = len(cur)
		}
		stripped[line] = string(cur[:off-1]) + string(cur[off:])
		e.Text = strings.Join(stripped, "\n")
		e.UpdatePropertiesAt(e.Settings, line, off-1)
		return
	}
	if line == 0 {
		return
	}
	prevLen := len([]rune(stripped[line-1]))
	stripped[line-1] += stripped[line]
	next := append(append([]string{}, stripped[:line]...), stripped[line+1:]...)
	e.Text = strings.Join(next, "\n")
	e.UpdatePropertiesAt(e.Settings, line-1, prevLen)
}

// SelectedAll returns the full rendered text, for select-all/copy paths.
func (e *Engine) SelectedAll() string { return e.Text }
