package server

import (
	"context"
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

func TestSettingsHandler(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		mockS := &storagemock.MockDatabase{}
		mockS.On("GetSettings", mock.Anything).Return(testSettings(), types.CurrentSettingsVersion, nil)

		srv := newTestServer(mockS)
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/settings", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), `"greenVariancePct":2`)
		assert.Equal(t, "no-store", w.Result().Header.Get("Cache-Control"))
	})

	t.Run("Get Migrates Old Version", func(t *testing.T) {
		mockS := &storagemock.MockDatabase{}
		mockS.On("GetSettings", mock.Anything).Return(types.Settings{}, 0, nil)
		mockS.On("SetSettings", mock.Anything, mock.MatchedBy(func(s types.Settings) bool {
			return s.GreenVariancePct == 2 && s.YellowVariancePct == 5 && s.RequireJustification
		}), types.CurrentSettingsVersion).Return(nil)

		srv := newTestServer(mockS)
		h := srv.setupHandler()

		req := httptest.NewRequest("GET", "/api/settings", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Result().StatusCode)
		assert.Contains(t, w.Body.String(), `"yellowVariancePct":5`)
		mockS.AssertExpectations(t)
	})

	t.Run("Update", func(t *testing.T) {
		mockS := &storagemock.MockDatabase{}
		mockS.On("SetSettings", mock.Anything, mock.MatchedBy(func(s types.Settings) bool {
			return s.GreenVariancePct == 1 && s.DryRun
		}), types.CurrentSettingsVersion).Return(nil)

		srv := newTestServer(mockS)
		h := srv.setupHandler()

		body := `{"dryRun":true,"greenVariancePct":1,"yellowVariancePct":4,"roundingTolerance":0.01,"roundingWarn":0.5}`
		req := httptest.NewRequest("POST", "/api/settings", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Result().StatusCode, w.Body.String())
		mockS.AssertExpectations(t)
	})

	t.Run("Update Validation", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		h := srv.setupHandler()

		for _, body := range []string{
			`{"greenVariancePct":-1}`,
			`{"greenVariancePct":5,"yellowVariancePct":2}`,
			`{"greenVariancePct":2,"yellowVariancePct":5,"roundingTolerance":-0.1}`,
			`{"greenVariancePct":2,"yellowVariancePct":5,"roundingTolerance":1,"roundingWarn":0.5}`,
		} {
			req := httptest.NewRequest("POST", "/api/settings", strings.NewReader(body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode, body)
		}
	})

	t.Run("Update Not Admin", func(t *testing.T) {
		srv := newTestServer(&storagemock.MockDatabase{})
		srv.bypassAuth = false
		srv.adminEmails = []string{"admin@kserc.example"}

		req := httptest.NewRequest("POST", "/api/settings", strings.NewReader(`{}`))
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, authUser{Email: "staff@kserc.example"}))
		w := httptest.NewRecorder()

		srv.handleUpdateSettings(w, req)
		assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
	})

	t.Run("Update Admin Email", func(t *testing.T) {
		mockS := &storagemock.MockDatabase{}
		mockS.On("SetSettings", mock.Anything, mock.Anything, types.CurrentSettingsVersion).Return(nil)

		srv := newTestServer(mockS)
		srv.bypassAuth = false
		srv.adminEmails = []string{"admin@kserc.example"}

		body := `{"greenVariancePct":2,"yellowVariancePct":5,"roundingTolerance":0.01,"roundingWarn":0.5}`
		req := httptest.NewRequest("POST", "/api/settings", strings.NewReader(body))
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, authUser{Email: "admin@kserc.example"}))
		w := httptest.NewRecorder()

		srv.handleUpdateSettings(w, req)
		assert.Equal(t, http.StatusOK, w.Result().StatusCode, w.Body.String())
	})
}
