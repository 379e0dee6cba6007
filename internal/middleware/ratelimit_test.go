package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"podnplay/internal/models"
)

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiterMiddleware(rate.Limit(0.001), 2, nil)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/create/generate", nil)
		req = req.WithContext(WithUser(req.Context(), &models.User{ID: userID}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, do(1))
	assert.Equal(t, http.StatusOK, do(1))
	assert.Equal(t, http.StatusTooManyRequests, do(1))
	assert.Equal(t, http.StatusOK, do(2))
}

func TestRateLimiterRequiresUser(t *testing.T) {
	rl := NewRateLimiterMiddleware(rate.Inf, 1, nil)
	rr := httptest.NewRecorder()
	rl.Middleware(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
