package favorites

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberia-to/publish-quartz/internal/testutil"
)

const edn = `{:meta/version 1
 ;; :default-home {:page "Old Home"}
 :default-home {:page "Start"}
 ; :meta/title "commented"
 :meta/title "my garden"
 :favorites ["Projects" "Reading List" "Missing"]}
`

func TestParseEDN(t *testing.T) {
	got := ParseEDN([]byte(edn))
	want := Settings{
		Favorites: []string{"Projects", "Reading List", "Missing"},
		Home:      "Start",
		Title:     "my garden",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseEDN (-want +got):\n%s", diff)
	}
}

func TestSite(t *testing.T) {
	assert.Equal(t, SiteConfig{PageTitle: "My garden", HomePage: "Start"},
		Settings{Home: "Start", Title: "my garden"}.Site())
	assert.Equal(t, SiteConfig{PageTitle: "Start", HomePage: "start"}, Settings{Home: "start"}.Site())
	assert.Equal(t, SiteConfig{PageTitle: "Index", HomePage: "index"}, Settings{}.Site())
}

func TestSlug(t *testing.T) {
	s := Slug("Reading List")
	assert.NotEmpty(t, s)
	assert.NotContains(t, s, " ")
	assert.Equal(t, s, Slug("Reading List"))
}

func TestPublish(t *testing.T) {
	_, out := testutil.Store(t)
	idx := testutil.Index(t,
		"pages/Projects.md", "icon:: 🚀\n\n- body",
		"pages/Reading List.md", "- books",
		"pages/Secret.md", "private:: true\n\n- hidden",
	)
	require.NoError(t, out.Write("Projects.md", []byte("---\ntitle: \"🚀 Projects\"\nicon: \"🚀\"\n---\n\n- body\n")))
	require.NoError(t, out.Write("Reading List.md", []byte("---\ntitle: \"Reading List\"\n---\n\n- books\n")))

	favs, err := Publish(out, idx, []string{"projects", "Reading List", "Secret", "Missing"})
	require.NoError(t, err)
	require.Len(t, favs, 2)

	assert.Equal(t, "Projects", favs[0].Name)
	assert.Equal(t, "🚀 projects", favs[0].Title)
	assert.Equal(t, "Reading List", favs[1].Title)

	page, err := out.Read(favs[0].Path())
	require.NoError(t, err)
	assert.Contains(t, string(page), "![[Projects]]")

	list, err := out.Read("favorites/index.md")
	require.NoError(t, err)
	assert.Contains(t, string(list), IndexTitle)
	assert.Contains(t, string(list), "- [[favorites/"+favs[1].Slug+"|Reading List]]")
	assert.NotContains(t, string(list), "Secret")
}

func TestPublish_NoFavorites(t *testing.T) {
	_, out := testutil.Store(t)
	favs, err := Publish(out, testutil.Index(t), nil)
	require.NoError(t, err)
	assert.Empty(t, favs)
	assert.False(t, out.Exists("favorites/index.md"))
}

func TestWriteSite_CopiesHome(t *testing.T) {
	_, out := testutil.Store(t)
	idx := testutil.Index(t, "pages/Start.md", "- hello")
	home := "---\ntitle: \"Start\"\n---\n\n- hello\n"
	require.NoError(t, out.Write("Start.md", []byte(home)))

	require.NoError(t, WriteSite(out, idx, SiteConfig{PageTitle: "Garden", HomePage: "start"}))

	data, err := out.Read(SiteConfigPath)
	require.NoError(t, err)
	var site SiteConfig
	require.NoError(t, json.Unmarshal(data, &site))
	assert.Equal(t, "Garden", site.PageTitle)

	index, err := out.Read("index.md")
	require.NoError(t, err)
	assert.Equal(t, home, string(index))
}

func TestWriteSite_Welcome(t *testing.T) {
	_, out := testutil.Store(t)
	require.NoError(t, WriteSite(out, testutil.Index(t), SiteConfig{PageTitle: "X", HomePage: "Nowhere"}))

	index, err := out.Read("index.md")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(index), "# Welcome\n\nSee [[Nowhere]]\n"))
}

func TestWriteSite_KeepsExistingIndex(t *testing.T) {
	_, out := testutil.Store(t)
	require.NoError(t, out.Write("index.md", []byte("mine")))
	require.NoError(t, WriteSite(out, testutil.Index(t), SiteConfig{HomePage: "index"}))

	index, err := out.Read("index.md")
	require.NoError(t, err)
	assert.Equal(t, "mine", string(index))
}
