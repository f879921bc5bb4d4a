package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	html := `<html><body>
		<a href="/story-1">First story</a>
		<a href="/story-2">Second story</a>
		<a href="/story-1">First story repeated</a>
		<a href="https://other.example.com/abs">Absolute link</a>
		<a href="/empty"><img src="x.png"></a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, html)
	}))
	defer srv.Close()

	s := New(false)
	items, err := s.Links(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Relative hrefs resolve against the page URL.
	assert.Equal(t, srv.URL+"/story-1", items[0].Link)
	assert.Equal(t, "First story", items[0].Title)
	assert.Equal(t, srv.URL+"/story-2", items[1].Link)
	// Duplicates and textless anchors are skipped.
	assert.Equal(t, "https://other.example.com/abs", items[2].Link)
}

func TestLinksCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < maxLinks*2; i++ {
		fmt.Fprintf(&b, `<a href="/story-%d">Story %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	s := New(false)
	items, err := s.Links(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, items, maxLinks)
}

func TestLinksErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(false)
	_, err := s.Links(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestToRSS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/a">Story A</a><a href="/b">Story B</a></body></html>`)
	}))
	defer srv.Close()

	s := New(false)
	out, err := s.ToRSS(context.Background(), srv.URL)
	require.NoError(t, err)

	var doc rssDoc
	require.NoError(t, xml.Unmarshal(out, &doc))

	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, srv.URL, doc.Channel.Link)
	require.Len(t, doc.Channel.Items, 2)
	assert.Equal(t, "Story A", doc.Channel.Items[0].Title)
	assert.Equal(t, srv.URL+"/b", doc.Channel.Items[1].Link)
}
