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
	"fmt"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"certstudio/internal/scene"
)

// A4 dimensions in millimeters, portrait.
const (
	a4ShortMM = 210.0
	a4LongMM  = 297.0
)

// PageError records one page that failed to rasterize. The remaining pages
// are still exported.
type PageError struct {
	Page int // 1-based
	Err  error
}

func (e *PageError) Error() string { return fmt.Sprintf("page %d: %v", e.Page, e.Err) }
func (e *PageError) Unwrap() error { return e.Err }

// WritePDF rasterizes each page and places it full-bleed on one A4 page in
// the matching orientation. A page failure is reported but does not abort
// the remaining pages; the returned error joins all per-page failures, with
// cross-origin taint distinguishable via errors.Is(err, ErrTainted).
func WritePDF(w io.Writer, pages []*scene.Graph, r *Rasterizer) error {
	if len(pages) == 0 {
		return errors.New("export pdf: no pages")
	}
	if r == nil {
		r = &Rasterizer{}
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: a4ShortMM, Ht: a4LongMM},
	})
	pdf.SetTitle("Certificate", false)

	var pageErrs []error
	exported := 0
	for i, g := range pages {
		img, err := r.Render(g)
		if err != nil {
			pageErrs = append(pageErrs, &PageError{Page: i + 1, Err: err})
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			pageErrs = append(pageErrs, &PageError{Page: i + 1, Err: err})
			continue
		}

		wMM, hMM := a4LongMM, a4ShortMM
		if g.Orientation() == scene.Portrait {
			wMM, hMM = a4ShortMM, a4LongMM
		}
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: wMM, Ht: hMM})
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		pdf.ImageOptions(name, 0, 0, wMM, hMM, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		exported++
	}

	if exported == 0 {
		return errors.Join(pageErrs...)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return errors.Join(pageErrs...)
}
