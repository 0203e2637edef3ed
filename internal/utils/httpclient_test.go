package utils

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// helper: GET y devuelve el código del StatusError (0 si no hubo)
func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func TestGetJSONHandles500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), NewHTTPClient(2*time.Second), srv.URL, &v)
	if code := statusOf(err); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d (err=%v)", code, err)
	}
	if !Retryable(err) {
		t.Fatal("5xx should be retryable")
	}
}

func TestGetJSONHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), NewHTTPClient(2*time.Second), srv.URL, &v)
	if code := statusOf(err); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if Retryable(err) {
		t.Fatal("404 should not be retryable")
	}
}

func TestGetJSONHandlesTimeout(t *testing.T) {
	// servidor que tarda más que el timeout del cliente
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), NewHTTPClient(500*time.Millisecond), srv.URL, &v)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if statusOf(err) != 0 || !Retryable(err) {
		t.Fatalf("timeout should be a retryable transport error: %v", err)
	}
}

func TestPostJSONSignsBody(t *testing.T) {
	var sig string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), NewHTTPClient(time.Second), srv.URL, "k", map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"n":1}` {
		t.Fatalf("unexpected body %s", body)
	}
	if sig != Sign("k", body) {
		t.Fatalf("bad signature %q", sig)
	}
	if err := PostJSON(context.Background(), NewHTTPClient(time.Second), "", "", nil); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestBackoffStopsOnSuccessAndHonorsContext(t *testing.T) {
	b := NewBackoff(time.Millisecond, 3)
	calls := 0
	err := b.Do(context.Background(), func(i int) error {
		calls++
		if i < 2 {
			return errors.New("again")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on 3rd call, got calls=%d err=%v", calls, err)
	}

	calls = 0
	err = b.Do(context.Background(), func(int) error { calls++; return errors.New("always") })
	if err == nil || calls != 4 {
		t.Fatalf("expected 4 attempts and last error, got calls=%d err=%v", calls, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewBackoff(time.Second, 5).Do(ctx, func(int) error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
