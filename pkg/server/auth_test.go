package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trueup/trueup/pkg/storage/storagemock"
	"github.com/trueup/trueup/pkg/types"
)

func TestAuthMiddleware(t *testing.T) {
	t.Run("Bypass Allows", func(t *testing.T) {
		mockS := &storagemock.MockDatabase{}
		mockS.On("GetSettings", mock.Anything).Return(testSettings(), types.CurrentSettingsVersion, nil)

		srv := newTestServer(mockS)
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/settings", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	})

	t.Run("No Cookie Unauthorized", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = false
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/settings", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
	})

	t.Run("No Cookie Allowed For Auth Status", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = false
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/auth/status", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Result().StatusCode)
		var resp authStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.LoggedIn)
	})

	t.Run("Invalid Cookie Rejected", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = false
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/settings", nil)
		req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "garbage"})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Logout Clears Cookie", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		h := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/auth/logout", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Result().StatusCode)
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, authTokenCookie, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("Login Invalid Token", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = false
		h := srv.setupHandler()

		req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"token":"garbage"}`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
	})
}
