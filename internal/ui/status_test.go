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
	"strings"
	"testing"
)

func TestStatusLineFormatsIntegerZoom(t *testing.T) {
	got := statusLine(1, 2, 100)
	if got != "Page 1/2  Zoom 100%" {
		t.Fatalf("statusLine = %q", got)
	}
	if strings.Contains(got, "%!") {
		t.Fatalf("status line carries a verb error: %q", got)
	}
}
