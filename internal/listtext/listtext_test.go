/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package listtext

import (
	"strings"
	"testing"
)

func TestProcessBulletAndArrow(t *testing.T) {
	if got := Process("a\nb", Bullet, 0); got != "• a\n• b" {
		t.Fatalf("bullet: %q", got)
	}
	if got := Process("a", Arrow, 0); got != "▸ a" {
		t.Fatalf("arrow: %q", got)
	}
	if got := Process("a\nb", None, 0); got != "a\nb" {
		t.Fatalf("none must be identity: %q", got)
	}
}

func TestProcessNumberedSkipsBlankLines(t *testing.T) {
	got := Process("Hello\n\nWorld", Numbered, 0)
	if got != "1. Hello\n\n2. World" {
		t.Fatalf("blank line consumed a numbering slot: %q", got)
	}
}

func TestProcessNumberedTwoLines(t *testing.T) {
	if got := Process("Hello\nWorld", Numbered, 0); got != "1. Hello\n2. World" {
		t.Fatalf("numbered: %q", got)
	}
}

func TestProcessIndent(t *testing.T) {
	got := Process("x", Bullet, 2)
	if got != "    • x" {
		t.Fatalf("indent: %q", got)
	}
	// indent clamps to the maximum
	got = Process("x", Bullet, 99)
	if got != strings.Repeat("  ", MaxIndent)+"• x" {
		t.Fatalf("indent clamp: %q", got)
	}
}

func TestProcessIdempotent(t *testing.T) {
	for _, typ := range []ListType{Bullet, Arrow, Numbered} {
		for indent := 0; indent <= 3; indent++ {
			text := "one\ntwo\n\nthree"
			once := Process(text, typ, indent)
			twice := Process(once, typ, indent)
			if once != twice {
				t.Fatalf("%s/%d not idempotent:\n%q\n%q", typ, indent, once, twice)
			}
		}
	}
}

func TestProcessSwitchingTypesReplacesMarkers(t *testing.T) {
	numbered := Process("a\nb", Numbered, 0)
	bulleted := Process(numbered, Bullet, 1)
	if bulleted != "  • a\n  • b" {
		t.Fatalf("switching types left stale markers: %q", bulleted)
	}
}

func TestCleanMarkersInverse(t *testing.T) {
	orig := "first item\nsecond item"
	if got := CleanMarkers(Process(orig, Bullet, 0)); got != orig {
		t.Fatalf("clean(process(x)) != x: %q", got)
	}
	if got := CleanMarkers(Process(orig, Numbered, 3)); got != orig {
		t.Fatalf("numbered inverse: %q", got)
	}
}

func TestCleanMarkersTrimsSemicolonsAndSpace(t *testing.T) {
	got := CleanMarkers("  • item one; \n2. item two;")
	if got != "item one\nitem two" {
		t.Fatalf("clean: %q", got)
	}
}

func TestLineHeightSpacingBump(t *testing.T) {
	if h := LineHeight(1.2, 8, 16); h != 1.2+0.5 {
		t.Fatalf("line height: %v", h)
	}
	if h := LineHeight(1.2, 0, 16); h != 1.2 {
		t.Fatalf("zero spacing must not bump: %v", h)
	}
}

func TestEngineCursorRemapOnListChange(t *testing.T) {
	e := NewEngine("Hello\nWorld", Settings{Type: None})
	// cursor after "Wor" on line 1
	e.Cursor = len([]rune("Hello\nWor"))
	e.UpdateProperties(Settings{Type: Numbered})
	if e.Text != "1. Hello\n2. World" {
		t.Fatalf("text: %q", e.Text)
	}
	// cursor must sit after "2. Wor"
	want := len([]rune("1. Hello\n2. Wor"))
	if e.Cursor != want {
		t.Fatalf("cursor %d, want %d", e.Cursor, want)
	}
}

func TestEngineCursorRemapOnIndentChange(t *testing.T) {
	e := NewEngine("alpha\nbeta", Settings{Type: Bullet})
	e.Cursor = len([]rune("• alpha\n• be"))
	e.UpdateProperties(Settings{Type: Bullet, Indent: 1})
	want := len([]rune("  • alpha\n  • be"))
	if e.Cursor != want {
		t.Fatalf("cursor %d, want %d (text %q)", e.Cursor, want, e.Text)
	}
}

func TestEngineInsertNewlineSplitsItem(t *testing.T) {
	e := NewEngine("Hello World", Settings{Type: Numbered})
	// split between "Hello" and " World"
	e.Cursor = len([]rune("1. Hello"))
	e.InsertNewline()
	if e.Text != "1. Hello\n2.  World" {
		t.Fatalf("split: %q", e.Text)
	}
	line, off := e.logicalPosition()
	if line != 1 || off != 0 {
		t.Fatalf("cursor at %d/%d, want 1/0", line, off)
	}
}

func TestEngineDoubleEnterEndsList(t *testing.T) {
	e := NewEngine("item\n", Settings{Type: Bullet})
	// cursor on the trailing empty line
	e.Cursor = len([]rune(e.Text))
	e.InsertNewline()
	if e.Text != "• item" {
		t.Fatalf("empty list line not removed: %q", e.Text)
	}
}

func TestEnginePasteStripsIncomingMarkers(t *testing.T) {
	e := NewEngine("start", Settings{Type: Bullet})
	e.Cursor = len([]rune("• start"))
	e.Paste("• pasted one\n1. pasted two")
	if e.Text != "• startpasted one\n• pasted two" {
		t.Fatalf("paste: %q", e.Text)
	}
	line, off := e.logicalPosition()
	if line != 1 || off != len([]rune("pasted two")) {
		t.Fatalf("cursor at %d/%d after paste", line, off)
	}
}

func TestEngineInsertTextReprocesses(t *testing.T) {
	e := NewEngine("ab", Settings{Type: Numbered})
	e.Cursor = len([]rune("1. a"))
	e.InsertText("X")
	if e.Text != "1. aXb" {
		t.Fatalf("insert: %q", e.Text)
	}
	if e.Cursor != len([]rune("1. aX")) {
		t.Fatalf("cursor %d", e.Cursor)
	}
}

func TestEngineDeleteBackwardJoinsLines(t *testing.T) {
	e := NewEngine("one\ntwo", Settings{Type: Numbered})
	// cursor at logical start of line 1
	e.seekLogical(1, 0)
	e.DeleteBackward()
	if e.Text != "1. onetwo" {
		t.Fatalf("join: %q", e.Text)
	}
	line, off := e.logicalPosition()
	if line != 0 || off != len([]rune("one")) {
		t.Fatalf("cursor at %d/%d after join", line, off)
	}
}

func TestEngineDeleteBackwardInsideLine(t *testing.T) {
	e := NewEngine("abc", Settings{Type: Bullet})
	e.seekLogical(0, 2)
	e.DeleteBackward()
	if e.Text != "• ac" {
		t.Fatalf("delete: %q", e.Text)
	}
}
