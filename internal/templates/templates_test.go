package templates

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadParsesEveryPage(t *testing.T) {
	require.NoError(t, Load())
	for _, name := range Names {
		assert.Contains(t, pages, name)
	}
}

func TestRenderLayout(t *testing.T) {
	SetCommit("abc1234")
	t.Cleanup(func() { SetCommit("dev") })

	rec := httptest.NewRecorder()
	Render(rec, http.StatusBadRequest, "error", View{Title: "Bad request", Error: "page must be a number"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "page must be a number", doc.Find("#error").Text())
	assert.Equal(t, "Bad request", doc.Find("h1").Text())
	assert.Contains(t, doc.Find("footer").Text(), "abc1234")
	assert.Equal(t, 1, doc.Find(`a[href="/login"]`).Length())
	assert.Equal(t, 0, doc.Find(`form[action="/logout"]`).Length())
}

func TestRenderAuthenticatedNav(t *testing.T) {
	rec := httptest.NewRecorder()
	Render(rec, http.StatusOK, "about", View{Title: "About", Authenticated: true})

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(`form[action="/logout"]`).Length())
	assert.Equal(t, 1, doc.Find(`a[href="/games/new"]`).Length())
}

func TestRenderUnknownPage(t *testing.T) {
	rec := httptest.NewRecorder()
	Render(rec, http.StatusOK, "missing", View{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Template not found"))
}
