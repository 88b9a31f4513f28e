package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) result {
	t.Helper()
	var res result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res
}

func TestHealthz(t *testing.T) {
	h := New()
	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if res := decode(t, rec); res.Status != "ok" {
		t.Errorf("body status = %q, want ok", res.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Run("no checks passes", func(t *testing.T) {
		h := New()
		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("all checks pass", func(t *testing.T) {
		h := New()
		h.Add("database", func(context.Context) error { return nil })
		h.Add("speech", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		res := decode(t, rec)
		if res.Checks["database"] != "ok" || res.Checks["speech"] != "ok" {
			t.Errorf("checks = %v", res.Checks)
		}
	})

	t.Run("one failing check yields 503", func(t *testing.T) {
		h := New()
		h.Add("database", func(context.Context) error { return nil })
		h.Add("speech", func(context.Context) error { return errors.New("dial timeout") })

		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		res := decode(t, rec)
		if res.Status != "fail" {
			t.Errorf("body status = %q, want fail", res.Status)
		}
		if res.Checks["database"] != "ok" {
			t.Errorf("database check = %q, want ok", res.Checks["database"])
		}
		if res.Checks["speech"] != "fail: dial timeout" {
			t.Errorf("speech check = %q", res.Checks["speech"])
		}
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		h := New()
		h.Add("deadline", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline set")
			}
			return nil
		})

		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRegister(t *testing.T) {
	h := New()
	mux := http.NewServeMux()
	h.Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, resp.StatusCode)
		}
	}
}
