package query

import (
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/index"
	"github.com/cyberia-to/publish-quartz/internal/models"
)

type evaluator struct {
	idx  *index.Index
	tags map[string]struct{}
}

// Execute parses and evaluates a query against idx.
func Execute(text string, idx *index.Index) []*models.Document {
	return Parse(text).Eval(idx)
}

// Eval evaluates the query against idx. Results follow index order unless a
// boolean form reorders them.
func (q *Query) Eval(idx *index.Index) []*models.Document {
	if idx == nil || q.Root == nil {
		return nil
	}
	e := &evaluator{idx: idx}
	return q.Root.eval(e)
}

func (e *evaluator) filter(p predicate) []*models.Document {
	var out []*models.Document
	for _, d := range e.idx.Documents() {
		if p.match(e, d) {
			out = append(out, d)
		}
	}
	return out
}

func (e *evaluator) tagSet() map[string]struct{} {
	if e.tags == nil {
		e.tags = make(map[string]struct{})
		for _, t := range e.idx.AllTags() {
			e.tags[t] = struct{}{}
		}
	}
	return e.tags
}

func isDirective(n Node) bool {
	_, ok := n.(*SortBy)
	return ok
}

func (n *And) eval(e *evaluator) []*models.Document {
	var result []*models.Document
	first := true
	for _, op := range n.Operands {
		if isDirective(op) {
			continue
		}
		docs := op.eval(e)
		if first {
			result = docs
			first = false
			continue
		}
		keep := make(map[*models.Document]struct{}, len(docs))
		for _, d := range docs {
			keep[d] = struct{}{}
		}
		filtered := result[:0:0]
		for _, d := range result {
			if _, ok := keep[d]; ok {
				filtered = append(filtered, d)
			}
		}
		result = filtered
	}
	return result
}

func union(e *evaluator, ops []Node) []*models.Document {
	seen := make(map[*models.Document]struct{})
	var out []*models.Document
	for _, op := range ops {
		if isDirective(op) {
			continue
		}
		for _, d := range op.eval(e) {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func (n *Or) eval(e *evaluator) []*models.Document { return union(e, n.Operands) }

func (n *Not) eval(e *evaluator) []*models.Document {
	if len(n.Operands) == 0 {
		return nil
	}
	excluded := make(map[*models.Document]struct{})
	for _, d := range union(e, n.Operands) {
		excluded[d] = struct{}{}
	}
	var out []*models.Document
	for _, d := range e.idx.Documents() {
		if _, ok := excluded[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func (n *Page) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *Page) match(_ *evaluator, d *models.Document) bool {
	return d.NameLower == strings.ToLower(n.Name)
}

func (n *PageTags) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *PageTags) match(_ *evaluator, d *models.Document) bool {
	for _, t := range n.Tags {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}

func (n *Namespace) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *Namespace) match(_ *evaluator, d *models.Document) bool {
	ns := strings.ToLower(d.Namespace)
	return ns != "" && ns == n.NS
}

func (n *Property) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *Property) match(_ *evaluator, d *models.Document) bool {
	for k, v := range d.Properties {
		if strings.ReplaceAll(k, "-", "") != n.Key {
			continue
		}
		v = strings.TrimSpace(v)
		if !n.HasValue {
			return v != ""
		}
		want := strings.ToLower(n.Value)
		got := strings.ToLower(v)
		return got == want || strings.Contains(got, want)
	}
	return false
}

func (n *Task) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *Task) match(_ *evaluator, d *models.Document) bool {
	return n.re != nil && n.re.MatchString(d.Body)
}

func (n *Priority) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *Priority) match(_ *evaluator, d *models.Document) bool {
	for _, lvl := range n.Levels {
		if strings.Contains(d.Body, "[#"+lvl+"]") {
			return true
		}
	}
	return false
}

func (n *Between) eval(e *evaluator) []*models.Document {
	if !n.Valid {
		return nil
	}
	return e.filter(n)
}
func (n *Between) match(_ *evaluator, d *models.Document) bool {
	name := d.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	t, ok := ParseDate(name)
	if !ok {
		return false
	}
	return !t.Before(n.From) && !t.After(n.To)
}

func (n *AllPageTags) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *AllPageTags) match(e *evaluator, d *models.Document) bool {
	_, ok := e.tagSet()[d.NameLower]
	return ok
}

// SortBy evaluated on its own carries no filter and matches nothing.
func (n *SortBy) eval(_ *evaluator) []*models.Document { return nil }

func (n *PageRef) eval(e *evaluator) []*models.Document { return e.filter(n) }
func (n *PageRef) match(_ *evaluator, d *models.Document) bool {
	name := strings.ToLower(n.Name)
	return d.NameLower == name || strings.Contains(d.BodyLower, "[["+name+"]]")
}

func (n *Text) eval(e *evaluator) []*models.Document {
	if strings.TrimSpace(n.Value) == "" {
		return nil
	}
	return e.filter(n)
}
func (n *Text) match(_ *evaluator, d *models.Document) bool {
	return strings.Contains(d.BodyLower, strings.ToLower(n.Value))
}

func (n *Invalid) eval(_ *evaluator) []*models.Document { return nil }
