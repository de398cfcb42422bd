/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"certstudio/internal/domain"
)

func TestClientRoundTrip(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/certificates":
			var cert domain.Certificate
			if err := json.NewDecoder(r.Body).Decode(&cert); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			cert.ID = 42
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(cert)
		case r.Method == http.MethodGet && r.URL.Path == "/api/certificates/42":
			cert := validCert()
			cert.ID = 42
			json.NewEncoder(w).Encode(cert)
		case r.Method == http.MethodGet && r.URL.Path == "/api/certificates":
			json.NewEncoder(w).Encode([]domain.Certificate{validCert()})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/certificates/42":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	// Trailing slash gets normalized away.
	c := NewClient(ts.URL+"/", "secret")
	ctx := context.Background()

	cert := validCert()
	created, err := c.CreateCertificate(ctx, &cert)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 42 {
		t.Fatalf("created id = %d, want 42", created.ID)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q", gotAuth)
	}

	got, err := c.GetCertificate(ctx, 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Completion" {
		t.Fatalf("got name %q", got.Name)
	}

	list, err := c.ListCertificates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list len = %d", len(list))
	}

	if err := c.DeleteCertificate(ctx, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestClientMapsNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	if _, err := c.GetCertificate(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClientRejectsInvalidBeforeSending(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	cert := validCert()
	cert.FrontJSON = "not json"
	if _, err := c.CreateCertificate(context.Background(), &cert); err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Fatal("invalid certificate must not reach the server")
	}
}
