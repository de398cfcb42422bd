/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certstudio/internal/domain"
)

func testCertificate() domain.Certificate {
	return domain.Certificate{
		Name:         "Course Completion",
		CourseID:     12,
		CanvasWidth:  842,
		CanvasHeight: 595,
		FrontJSON:    `{"objects":[]}`,
		Active:       true,
	}
}

func TestInitWorkspaceScaffolds(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, testCertificate())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	if wh.ManifestPath != filepath.Join(root, ManifestFileName) {
		t.Fatalf("manifest path = %s", wh.ManifestPath)
	}
	for _, d := range []string{"assets", "fonts", "exports", BackupsDirName} {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("missing subdir %s: %v", d, err)
		}
	}
	if _, err := os.Stat(wh.ManifestPath); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
}

func TestSaveCreatesBackupOfPreviousManifest(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, testCertificate())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	wh.Certificate.Name = "Renamed"
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups: %v", err)
	}
	var baks int
	for _, e := range ents {
		if strings.HasSuffix(e.Name(), ".bak") {
			baks++
		}
	}
	if baks == 0 {
		t.Fatal("no backup written by Save")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	if _, err := InitWorkspace(root, testCertificate()); err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	wh, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if wh.Certificate.Name != "Course Completion" || wh.Certificate.CourseID != 12 {
		t.Fatalf("unexpected certificate %+v", wh.Certificate)
	}
}

func TestOpenFallsBackToBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, testCertificate())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	// Second save backs up the original manifest.
	wh.Certificate.Name = "Second"
	if err := Save(wh); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	// Corrupt the live manifest.
	if err := os.WriteFile(wh.ManifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open after corruption: %v", err)
	}
	if got.Certificate.Name != "Course Completion" {
		t.Fatalf("recovered name = %q, want the backed up manifest", got.Certificate.Name)
	}
}

func TestOpenFailsWithoutManifestOrBackup(t *testing.T) {
	root := t.TempDir()
	if _, err := Open(root); err == nil {
		t.Fatal("expected error opening empty directory")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, testCertificate())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}

	path, err := AutosaveCrashSnapshot(wh)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Certificate
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "Course Completion" {
		t.Fatalf("snapshot name = %q", got.Name)
	}
}

func TestSaveAsScaffoldsNewRoot(t *testing.T) {
	root := t.TempDir()
	wh, err := InitWorkspace(root, testCertificate())
	if err != nil {
		t.Fatalf("InitWorkspace error: %v", err)
	}
	newRoot := filepath.Join(t.TempDir(), "copy")
	if err := SaveAs(wh, newRoot); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if wh.Root != newRoot {
		t.Fatalf("handle root = %s, want %s", wh.Root, newRoot)
	}
	if _, err := os.Stat(filepath.Join(newRoot, ManifestFileName)); err != nil {
		t.Fatalf("manifest missing in new root: %v", err)
	}
}
