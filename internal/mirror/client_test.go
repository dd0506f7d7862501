package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClientPush(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"accepted", http.StatusOK, `{"success":true}`, false},
		{"rejected", http.StatusOK, `{"success":false,"error":"read only"}`, true},
		{"server error", http.StatusInternalServerError, `{}`, true},
		{"garbage body", http.StatusOK, `not json`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotPath, gotType string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotType = r.Header.Get("Content-Type")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, time.Second)

			err := c.Push(context.Background(), "announcements", json.RawMessage(`[]`))

			if tc.wantErr && err == nil {
				t.Fatal("want error, got nil")
			}

			if !tc.wantErr && err != nil {
				t.Fatalf("want nil, got %v", err)
			}

			if gotPath != "/api/announcements" {
				t.Fatalf("want /api/announcements, got %s", gotPath)
			}

			if gotType != "application/json" {
				t.Fatalf("want json content type, got %q", gotType)
			}
		})
	}
}
