package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warehouse-be/internal/apperr"
	"warehouse-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Authenticate(ctx context.Context, token string) (utils.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(utils.Identity), args.Error(1)
}

func okHandler(t *testing.T, check func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Detail
}

func TestAuthenticate(t *testing.T) {
	t.Run("MissingTokenIsAnonymous", func(t *testing.T) {
		resolver := new(MockResolver)
		w := httptest.NewRecorder()

		Authenticate(resolver)(okHandler(t, func(r *http.Request) {
			_, ok := utils.IdentityFromContext(r.Context())
			assert.False(t, ok)
		})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/1", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("ValidToken", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Authenticate", mock.Anything, "good").
			Return(utils.Identity{UserID: 1, Role: utils.RoleOperator}, nil)

		req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()

		Authenticate(resolver)(okHandler(t, func(r *http.Request) {
			id, ok := utils.IdentityFromContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, int64(1), id.UserID)
		})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("InvalidTokenIsAnonymous", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Authenticate", mock.Anything, "bad").
			Return(utils.Identity{}, apperr.Unauthorized("invalid or expired token"))

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()

		Authenticate(resolver)(okHandler(t, func(r *http.Request) {
			_, ok := utils.IdentityFromContext(r.Context())
			assert.False(t, ok)
		})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("InvalidTokenOnProtectedRoute", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Authenticate", mock.Anything, "bad").
			Return(utils.Identity{}, apperr.Unauthorized("invalid or expired token"))

		req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		req.Header.Set("Authorization", "Bearer bad")
		w := httptest.NewRecorder()

		Authenticate(resolver)(RequireRole(utils.RoleOperator)(okHandler(t, nil))).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	})

	t.Run("ResolverFailureIs500", func(t *testing.T) {
		resolver := new(MockResolver)
		resolver.On("Authenticate", mock.Anything, "tok").
			Return(utils.Identity{}, errors.New("db down"))

		req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()

		Authenticate(resolver)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeDetail(t, w))
	})
}

func TestAuthorize(t *testing.T) {
	op := &utils.Identity{UserID: 1, Role: utils.RoleOperator}
	admin := &utils.Identity{UserID: 2, Role: utils.RoleAdmin}

	assert.NoError(t, Authorize(op, utils.RoleOperator, utils.RoleAdmin))
	assert.NoError(t, Authorize(admin, utils.RoleAdmin))
	assert.NoError(t, Authorize(op))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(Authorize(op, utils.RoleAdmin)))
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(Authorize(nil, utils.RoleOperator)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(Authorize(&utils.Identity{Role: "guest"}, utils.RoleOperator)))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(utils.RoleAdmin)(okHandler(t, nil))

	t.Run("Anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("WrongRole", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req = req.WithContext(utils.WithIdentity(req.Context(), utils.Identity{UserID: 1, Role: utils.RoleOperator}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "insufficient role", decodeDetail(t, w))
	})

	t.Run("Allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req = req.WithContext(utils.WithIdentity(req.Context(), utils.Identity{UserID: 2, Role: utils.RoleAdmin}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("StrictTierForAuth", func(t *testing.T) {
		rl := NewRateLimiter(AuthPathsStrict)
		defer rl.Stop()
		h := rl.Middleware(okHandler(t, nil))

		codes := map[int]int{}
		for i := 0; i < burstStrict+3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			codes[w.Code]++
		}
		assert.Equal(t, burstStrict, codes[http.StatusOK])
		assert.Equal(t, 3, codes[http.StatusTooManyRequests])
	})

	t.Run("SeparateBucketsPerCaller", func(t *testing.T) {
		rl := NewRateLimiter(AuthPathsStrict)
		defer rl.Stop()
		h := rl.Middleware(okHandler(t, nil))

		for i := 0; i < burstStrict; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			h.ServeHTTP(httptest.NewRecorder(), req)
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		// general tier is a separate bucket for the exhausted caller
		req = httptest.NewRequest(http.MethodGet, "/orders/1", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("SweepDropsIdleVisitors", func(t *testing.T) {
		rl := NewRateLimiter(nil)
		defer rl.Stop()

		base := time.Now()
		rl.now = func() time.Time { return base }
		rl.getVisitor("ip:1:general", limitGeneral, burstGeneral)

		rl.now = func() time.Time { return base.Add(visitorIdleTTL + time.Second) }
		rl.sweep()

		rl.mu.Lock()
		defer rl.mu.Unlock()
		assert.Empty(t, rl.visitors)
	})
}

func TestCallerKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:1234"
	assert.Equal(t, "ip:192.168.1.9", callerKey(req))

	req = req.WithContext(utils.WithIdentity(req.Context(), utils.Identity{UserID: 5}))
	assert.Equal(t, "user:5", callerKey(req))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeDetail(t, w))
}
