package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/zaida-dev/backend-hospeda/internal/common"
)

func newHandler(max int64) Handler {
	return Handler{
		Limiter: New(memory.NewStore(), max, time.Minute),
		Logger:  zerolog.Nop(),
	}
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	handler := newHandler(2)
	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = req.WithContext(common.WithCustomerID(req.Context(), "11111111-1111-1111-1111-111111111111"))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req.Clone(req.Context()))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
}

func TestMiddlewareKeysByCustomer(t *testing.T) {
	handler := newHandler(1)
	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	first = first.WithContext(common.WithCustomerID(first.Context(), "11111111-1111-1111-1111-111111111111"))
	second := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	second = second.WithContext(common.WithCustomerID(second.Context(), "22222222-2222-2222-2222-222222222222"))

	rr1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr1, first)
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rr2, second)
	require.Equal(t, http.StatusOK, rr2.Code)
}

func TestMiddlewarePassesThroughWithoutLimiter(t *testing.T) {
	handler := Handler{Logger: zerolog.Nop()}
	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
