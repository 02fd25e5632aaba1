package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubStore struct {
	data map[string]string
	sets int
}

func newStubStore() *stubStore {
	return &stubStore{data: map[string]string{}}
}

func (s *stubStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (s *stubStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.sets++
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = value.(string)
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return "lb:idempotency:" + scope + ":" + id
}

func (s *stubStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func checkoutHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order":"one"}}`))
	})
}

func TestIdempotencyReplayReturnsStoredResponse(t *testing.T) {
	store := newStubStore()
	calls := 0
	h := Idempotency(store, nil)(checkoutHandler(&calls))

	body := `{"note":"same"}`
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: status = %d, want 201", i, rec.Code)
		}
		if got := rec.Body.String(); got != `{"data":{"order":"one"}}` {
			t.Fatalf("attempt %d: body = %q", i, got)
		}
	}

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	store := newStubStore()
	calls := 0
	h := Idempotency(store, nil)(checkoutHandler(&calls))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"a":1}`))
	first.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"a":2}`))
	second.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, second)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newStubStore()
	calls := 0
	h := Idempotency(store, nil)(checkoutHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler calls = %d, want 0", calls)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newStubStore()
	calls := 0
	h := Idempotency(store, nil)(checkoutHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if store.sets != 0 {
		t.Fatalf("store writes = %d, want 0", store.sets)
	}
}

func TestIdempotencyScopesKeysByActor(t *testing.T) {
	store := newStubStore()
	calls := 0
	h := Idempotency(store, nil)(checkoutHandler(&calls))

	customers := []string{
		"6a9f0f77-54be-4b5c-9f29-19613c9ec7f5",
		"8f4a4d0f-0d5a-46a7-bb39-1fb9b37b2fb8",
	}
	for _, customerID := range customers {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "shared-key")
		req = req.WithContext(WithCustomerID(req.Context(), mustUUID(t, customerID)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("customer %s: status = %d", customerID, rec.Code)
		}
	}

	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2 (distinct scopes)", calls)
	}
}
