// Package transform rewrites Logseq page bodies into Quartz markdown through
// an ordered sequence of stages.
package transform

import (
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/linkres"
)

// Pipeline holds everything a transform needs. It is read-only after New and
// safe for concurrent use.
type Pipeline struct {
	idx      *index.Index
	resolver *linkres.Resolver
	pats     *patterns
	stages   []stage
}

type stage struct {
	name string
	run  func(string) string
}

// New builds a pipeline over idx.
func New(idx *index.Index) *Pipeline {
	p := &Pipeline{
		idx:      idx,
		resolver: linkres.New(idx),
		pats:     registry,
	}
	p.stages = []stage{
		{"system-properties", p.stripSystemProperties},
		{"logbook", p.stripLogbook},
		{"queries", p.runQueries},
		{"user-properties", p.userProperties},
		{"image-size", p.stripImageSize},
		{"empty-bullets", p.stripEmptyBullets},
		{"tables", p.repairTables},
		{"dollars", p.escapeDollars},
		{"page-embeds", p.pageEmbeds},
		{"markdown-wikilinks", p.collapseMarkdownWikilinks},
		{"wikilinks", p.rewriteWikilinks},
		{"block-refs", p.blockRefs},
		{"media", p.media},
		{"renderers", p.renderers},
		{"hiccup", p.hiccup},
		{"cloze", p.cloze},
		{"tasks", p.tasks},
		{"priorities", p.priorities},
		{"planning", p.planning},
	}
	return p
}

// Resolver returns the link resolver the pipeline rewrites links with.
func (p *Pipeline) Resolver() *linkres.Resolver {
	return p.resolver
}

// Index returns the index queries are evaluated against.
func (p *Pipeline) Index() *index.Index {
	return p.idx
}

// Transform runs every stage over body in order.
func (p *Pipeline) Transform(body string) string {
	out := strings.ReplaceAll(body, "\r\n", "\n")
	for _, s := range p.stages {
		out = s.run(out)
	}
	return out
}

// StageNames lists the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}
