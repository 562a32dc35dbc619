package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"full url", "https://item.taobao.com/item.htm?id=1", "https://item.taobao.com/item.htm?id=1", false},
		{"no scheme", "detail.1688.com/offer/1.html", "https://detail.1688.com/offer/1.html", false},
		{"trimmed", "  http://m.tb.cn/h.abc \n", "http://m.tb.cn/h.abc", false},
		{"plain text", "хочу кроссовки", "", true},
		{"empty", "", "", true},
		{"ftp scheme", "ftp://files.example.com/x", "", true},
		{"host without dot", "https://intranet/x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("Parse(%q) error = %v, want ErrMalformed", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestCheckProbe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) })
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusGone) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// httptest слушает 127.0.0.1, у хоста есть точки
	c := New(WithHTTPClient(srv.Client()), WithTimeout(time.Second))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"reachable", "/ok", nil},
		{"bot protection is not an error", "/forbidden", nil},
		{"missing page", "/missing", ErrUnreachable},
		{"gone page", "/gone", ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Check(context.Background(), srv.URL+tt.path)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Check(%s) unexpected error: %v", tt.path, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Check(%s) error = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestCheckConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(WithTimeout(time.Second))
	if _, err := c.Check(context.Background(), addr+"/x"); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Check on closed server error = %v, want ErrUnreachable", err)
	}
}

func TestCheckWithoutProbe(t *testing.T) {
	c := New(WithProbe(false))

	got, err := c.Check(context.Background(), "item.taobao.com/item.htm?id=7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://item.taobao.com/item.htm?id=7" {
		t.Errorf("Check() = %q", got)
	}
	if _, err := c.Check(context.Background(), "not a link"); !errors.Is(err, ErrMalformed) {
		t.Errorf("Check(not a link) error = %v, want ErrMalformed", err)
	}
}
