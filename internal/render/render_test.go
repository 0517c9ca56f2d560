package render

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPage struct {
	Title   string
	Nav     string
	Message string
}

func TestRenderer_RendersPagesInLayout(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, r.Render(rr, http.StatusTeapot, "error.html", testPage{Title: "Oops", Nav: "home", Message: "<b>bad</b>"}))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Oops - EnvisionAI</title>")
	assert.Contains(t, body, "&lt;b&gt;bad&lt;/b&gt;")
}

func TestRenderer_UnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	err = r.Render(httptest.NewRecorder(), http.StatusOK, "missing.html", nil)
	assert.Error(t, err)
}

func TestAssets(t *testing.T) {
	rr := httptest.NewRecorder()
	Assets().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/app.css", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "--primary")
}
