/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the backend record types shared by the editor, the
// HTTP client and the server.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Certificate is one certificate template as stored by the backend. The page
// payloads travel as JSON-encoded strings; each decodes to an object list
// where every entry carries a type discriminator and a name role tag.
type Certificate struct {
	ID           int64   `json:"id,omitempty"`
	Name         string  `json:"name"`
	CourseID     int64   `json:"courseId"`
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
	FrontJSON    string  `json:"fabricJsonFront"`
	BackJSON     *string `json:"fabricJsonBack"`
	Active       bool    `json:"active"`
}

// Validate checks the record before it is sent to or accepted by the
// backend.
func (c *Certificate) Validate() error {
	if c.Name == "" {
		return errors.New("certificate name is required")
	}
	if c.CourseID <= 0 {
		return errors.New("certificate must reference a course")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("invalid canvas size %vx%v", c.CanvasWidth, c.CanvasHeight)
	}
	if !json.Valid([]byte(c.FrontJSON)) {
		return errors.New("front page payload is not valid JSON")
	}
	if c.BackJSON != nil && !json.Valid([]byte(*c.BackJSON)) {
		return errors.New("back page payload is not valid JSON")
	}
	return nil
}
