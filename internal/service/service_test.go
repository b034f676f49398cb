package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberia-to/publish-quartz/internal/apperr"
	"github.com/cyberia-to/publish-quartz/internal/catalog"
	"github.com/cyberia-to/publish-quartz/internal/publish"
	"github.com/cyberia-to/publish-quartz/internal/testutil"
)

func testService(t *testing.T) *Service {
	t.Helper()
	idx := testutil.Index(t,
		"pages/Projects.md", "tags:: work\nalias:: proj\n\n- TODO ship",
		"pages/Garden.md", "tags:: home\n\n- plants",
		"pages/tools___hammer.md", "- hits",
	)
	return NewStatic(publish.NewGraph(idx))
}

func TestQuery(t *testing.T) {
	s := testService(t)

	res, err := s.Query("{{query (page-tags [[work]])}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "(page-tags [[work]])", res.Query)
	assert.Equal(t, []string{"Projects"}, res.Matches)
	assert.Contains(t, res.Markdown, "[[Projects")
}

func TestQuery_ListOption(t *testing.T) {
	s := testService(t)

	res, err := s.Query("(page-tags [[work]])", []string{"query-table:: false"})
	require.NoError(t, err)
	assert.Equal(t, "list", res.Layout)
}

func TestQuery_NoMatches(t *testing.T) {
	s := testService(t)

	res, err := s.Query("(page-tags [[nothing]])", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, "callout", res.Layout)
	assert.Contains(t, res.Markdown, "No pages match this query.")
}

func TestQuery_Empty(t *testing.T) {
	_, err := testService(t).Query("{{query }}", nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))
}

func TestResolve(t *testing.T) {
	s := testService(t)

	r, err := s.Resolve("PROJ")
	require.NoError(t, err)
	assert.Equal(t, Resolution{Link: "PROJ", Target: "Projects", Found: true}, r)

	r, err = s.Resolve("Unknown Page")
	require.NoError(t, err)
	assert.False(t, r.Found)
	assert.Equal(t, "Unknown Page", r.Target)

	_, err = s.Resolve("  ")
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))
}

func TestTransform(t *testing.T) {
	out, err := testService(t).Transform("- see [[proj]]")
	require.NoError(t, err)
	assert.Equal(t, "- see [[Projects|proj]]", out)
}

func TestDocuments(t *testing.T) {
	s := testService(t)

	all, err := s.Documents("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tagged, err := s.Documents("Home")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "Garden", tagged[0].Name)

	d, err := s.Document("tools/hammer")
	require.NoError(t, err)
	assert.Equal(t, "tools", d.Namespace)

	_, err = s.Document("nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestNotReady(t *testing.T) {
	s := New(nil, nil)
	assert.False(t, s.Ready())
	assert.Equal(t, 0, s.Len())
	_, err := s.Query("(task TODO)", nil)
	assert.True(t, errors.Is(err, apperr.ErrNotReady))
}

func TestReload(t *testing.T) {
	calls := 0
	s := New(func(context.Context) (*publish.Graph, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("boom")
		}
		return publish.NewGraph(testutil.Index(t, "pages/A.md", "- a", "pages/B.md", "- b")), nil
	}, nil)

	require.NoError(t, s.Reload(context.Background()))
	assert.True(t, s.Ready())

	assert.Error(t, s.Reload(context.Background()))
	assert.True(t, s.Ready(), "failed reload must keep the previous graph")
	assert.Equal(t, 2, s.Len())
}

func TestBacklinks(t *testing.T) {
	db, err := catalog.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RecordAll([]catalog.Entry{
		{Name: "Garden", Path: "Garden.md", Links: []string{"Projects"}},
		{Name: "Projects", Path: "Projects.md"},
	}))

	idx := testutil.Index(t, "pages/Projects.md", "alias:: proj\n\n- x", "pages/Garden.md", "- y")
	s := NewStatic(publish.NewGraph(idx), WithCatalog(db))

	got, err := s.Backlinks("proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"Garden"}, got)

	_, err = testService(t).Backlinks("Projects")
	assert.True(t, errors.Is(err, apperr.ErrNotReady))
}
