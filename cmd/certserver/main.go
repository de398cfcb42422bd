/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"certstudio/internal/backend"
	applog "certstudio/internal/log"
)

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("certserver")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		l.Warn(".env file not found")
	}

	if err := backend.Start(); err != nil {
		l.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
