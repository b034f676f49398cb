package transform

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cyberia-to/publish-quartz/internal/hiccup"
)

const (
	blockEmbedText = "*Block embed - view in Logseq*"
	pdfFrame       = `<iframe src="%s" width="100%%" height="600px" style="border: 1px solid #333; border-radius: 4px;"></iframe>`
)

var (
	taskMarkers = map[string]string{
		"DONE":      "- [x] ",
		"TODO":      "- [ ] ",
		"NOW":       "- [ ] 🔄 ",
		"DOING":     "- [ ] 🔄 ",
		"LATER":     "- [ ] 📅 ",
		"WAITING":   "- [ ] ⏳ ",
		"CANCELLED": "- [x] ❌ ",
		"CANCELED":  "- [x] ❌ ",
	}
	priorityReplacer = strings.NewReplacer("[#A]", "🔴", "[#B]", "🟡", "[#C]", "🟢")
)

func (p *Pipeline) stripSystemProperties(s string) string {
	return p.pats.systemProp.ReplaceAllString(s, "")
}

func (p *Pipeline) stripLogbook(s string) string {
	return p.pats.logbook.ReplaceAllString(s, "")
}

// userProperties turns key:: value lines into bold prose bullets. Leftover
// query option lines are dropped.
func (p *Pipeline) userProperties(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		m := p.pats.userProp.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		key := strings.ToLower(m[2])
		if strings.HasPrefix(key, "query-") {
			continue
		}
		out = append(out, m[1]+"- **"+TitleCase(m[2])+":** "+strings.TrimSpace(m[3]))
	}
	return strings.Join(out, "\n")
}

// TitleCase splits key on dashes and underscores and capitalizes each word.
func TitleCase(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func (p *Pipeline) stripImageSize(s string) string {
	return p.pats.imageSize.ReplaceAllString(s, "")
}

func (p *Pipeline) stripEmptyBullets(s string) string {
	return p.pats.emptyBullet.ReplaceAllString(s, "")
}

func (p *Pipeline) pageEmbeds(s string) string {
	return p.pats.embedPage.ReplaceAllString(s, "![[$1]]")
}

func (p *Pipeline) blockRefs(s string) string {
	s = p.pats.embedBlock.ReplaceAllString(s, blockEmbedText)
	return replaceSubmatchFunc(p.pats.blockRef, s, func(g []string) string {
		if _, err := uuid.Parse(g[1]); err != nil {
			return g[0]
		}
		return "[→ block](#^" + g[1] + ")"
	})
}

func (p *Pipeline) media(s string) string {
	s = replaceSubmatchFunc(p.pats.media, s, func(g []string) string {
		url := strings.TrimSpace(g[1])
		return "![" + url + "](" + url + ")"
	})
	frame := func(g []string) string {
		src := strings.TrimSpace(g[1])
		src = strings.TrimSuffix(strings.TrimPrefix(src, "[["), "]]")
		return fmt.Sprintf(pdfFrame, src)
	}
	s = replaceSubmatchFunc(p.pats.pdf, s, frame)
	return replaceSubmatchFunc(p.pats.pdfImage, s, frame)
}

func (p *Pipeline) renderers(s string) string {
	return p.pats.renderer.ReplaceAllLiteralString(s, "`[renderer]`")
}

func (p *Pipeline) hiccup(s string) string {
	return hiccup.ConvertBlocks(s)
}

func (p *Pipeline) cloze(s string) string {
	return replaceSubmatchFunc(p.pats.cloze, s, func(g []string) string {
		return "==" + strings.TrimSpace(g[1]) + "=="
	})
}

func (p *Pipeline) tasks(s string) string {
	return replaceSubmatchFunc(p.pats.task, s, func(g []string) string {
		return g[1] + taskMarkers[g[2]]
	})
}

func (p *Pipeline) priorities(s string) string {
	return priorityReplacer.Replace(s)
}

func (p *Pipeline) planning(s string) string {
	s = p.pats.scheduled.ReplaceAllString(s, "📅 Scheduled: $1")
	return p.pats.deadline.ReplaceAllString(s, "⏰ Deadline: $1")
}
