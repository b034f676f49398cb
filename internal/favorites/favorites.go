// Package favorites publishes the graph's favorite pages and site settings
// read from logseq/config.edn.
package favorites

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
	"github.com/goliatone/go-slug"

	fm "github.com/cyberia-to/publish-quartz/internal/frontmatter"
	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/storage"
)

// ConfigPath is the graph-relative location of the Logseq configuration.
const ConfigPath = "logseq/config.edn"

// Dir is the output directory favorites are published under.
const Dir = "favorites"

// SiteConfigPath is the output file Quartz reads its site settings from.
const SiteConfigPath = "_site_config.json"

// IndexTitle is the title of the favorites index page.
const IndexTitle = "⭐ Favorites"

var (
	favoritesRe = regexp.MustCompile(`:favorites\s+\[([\s\S]*?)\]`)
	itemRe      = regexp.MustCompile(`"([^"]+)"`)
	homeRe      = regexp.MustCompile(`:default-home\s+\{[^}]*:page\s+"([^"]+)"`)
	titleRe     = regexp.MustCompile(`:meta/title\s+"([^"]+)"`)
)

// Settings is what the publisher uses from config.edn.
type Settings struct {
	Favorites []string
	Home      string
	Title     string
}

// ParseEDN extracts favorites, the default home page and the site title.
// Lines commented with ';' are ignored when looking up home and title.
func ParseEDN(data []byte) Settings {
	text := string(data)
	var s Settings
	if m := favoritesRe.FindStringSubmatch(text); m != nil {
		for _, item := range itemRe.FindAllStringSubmatch(m[1], -1) {
			s.Favorites = append(s.Favorites, item[1])
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			continue
		}
		if s.Home == "" {
			if m := homeRe.FindStringSubmatch(line); m != nil {
				s.Home = m[1]
			}
		}
		if s.Title == "" {
			if m := titleRe.FindStringSubmatch(line); m != nil {
				s.Title = m[1]
			}
		}
	}
	return s
}

// SiteConfig is written to _site_config.json.
type SiteConfig struct {
	PageTitle string `json:"page_title"`
	HomePage  string `json:"home_page"`
}

// Site derives the site config. The home page defaults to "index" and the
// title falls back to the home page name.
func (s Settings) Site() SiteConfig {
	home := s.Home
	if home == "" {
		home = "index"
	}
	title := s.Title
	if title == "" {
		title = home
	}
	return SiteConfig{PageTitle: capitalize(title), HomePage: home}
}

// Favorite is one published favorite page.
type Favorite struct {
	Name  string
	Slug  string
	Title string
}

// Path returns the output path of the favorite page.
func (f Favorite) Path() string {
	return Dir + "/" + f.Slug + ".md"
}

// Publish writes favorites/<slug>.md for every favorite that was published
// as a page, plus favorites/index.md. Favorites without a published page
// are skipped.
func Publish(out storage.Provider, idx *index.Index, names []string) ([]Favorite, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var favs []Favorite
	var list strings.Builder
	for _, name := range names {
		doc, ok := idx.Lookup(name)
		if !ok {
			continue
		}
		pagePath := doc.Name + ".md"
		if !out.Exists(pagePath) {
			continue
		}

		title := name
		if icon := publishedIcon(out, pagePath); icon != "" {
			title = icon + " " + name
		}
		fav := Favorite{Name: doc.Name, Slug: Slug(name), Title: title}

		body := fm.MustRender(fm.Title(fav.Title)) + "\n![[" + fav.Name + "]]\n"
		if err := out.Write(fav.Path(), []byte(body)); err != nil {
			return favs, fmt.Errorf("favorites: write %s: %w", fav.Path(), err)
		}
		favs = append(favs, fav)
		fmt.Fprintf(&list, "- [[%s/%s|%s]]\n", Dir, fav.Slug, fav.Title)
	}

	page := fm.MustRender(fm.Title(IndexTitle)) + "\n" + list.String()
	if err := out.Write(Dir+"/index.md", []byte(page)); err != nil {
		return favs, fmt.Errorf("favorites: write index: %w", err)
	}
	return favs, nil
}

// WriteSite writes _site_config.json and, unless the graph already
// published one, index.md as a copy of the home page.
func WriteSite(out storage.Provider, idx *index.Index, site SiteConfig) error {
	data, err := json.MarshalIndent(site, "", "  ")
	if err != nil {
		return fmt.Errorf("favorites: encode site config: %w", err)
	}
	if err := out.Write(SiteConfigPath, data); err != nil {
		return fmt.Errorf("favorites: write site config: %w", err)
	}

	if out.Exists("index.md") {
		return nil
	}

	homePath := site.HomePage + ".md"
	if doc, ok := idx.Lookup(site.HomePage); ok {
		homePath = doc.Name + ".md"
	}
	var page []byte
	if out.Exists(homePath) {
		page, err = out.Read(homePath)
		if err != nil {
			return fmt.Errorf("favorites: read home page: %w", err)
		}
	} else {
		page = []byte(fm.MustRender(fm.Title(site.HomePage)) +
			"\n# Welcome\n\nSee [[" + site.HomePage + "]]\n")
	}
	if err := out.Write("index.md", page); err != nil {
		return fmt.Errorf("favorites: write index.md: %w", err)
	}
	return nil
}

// Slug returns the URL-safe file stem of a favorite.
func Slug(name string) string {
	if s, err := slug.Normalize(name); err == nil && s != "" {
		return s
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == ' ' || r == '/':
			sb.WriteRune('-')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

type pageHeader struct {
	Icon string `yaml:"icon"`
}

func publishedIcon(out storage.Provider, path string) string {
	data, err := out.Read(path)
	if err != nil {
		return ""
	}
	var h pageHeader
	if _, err := frontmatter.Parse(bytes.NewReader(data), &h); err != nil {
		return ""
	}
	return h.Icon
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
