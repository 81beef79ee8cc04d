package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/types"
	"github.com/stretchr/testify/assert"
)

func Test_authMiddleware(t *testing.T) {
	app := newTestApp(t, &database.MockCollabRepository{}, &judge.MockRunner{})

	t.Run("valid cookie passes user id to the handler", func(t *testing.T) {
		token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err)

		var gotUserId int
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			gotUserId, _ = UserId(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 42, gotUserId)
		assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	})

	t.Run("missing cookie", func(t *testing.T) {
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		})

		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(createJwtCookie("garbage", time.Hour))

		rr := httptest.NewRecorder()
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func Test_errorHandler(t *testing.T) {
	app := newTestApp(t, &database.MockCollabRepository{}, &judge.MockRunner{})

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}
