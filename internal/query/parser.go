package query

import (
	"strings"
	"unicode/utf8"
)

// Query is a parsed query expression.
type Query struct {
	// Text is the query with its {{query ...}} wrapper removed.
	Text string
	Root Node
	// Sort is the sort-by directive found in the expression, if any.
	Sort *SortBy
}

// StripWrapper removes a surrounding {{query ...}} from text.
func StripWrapper(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "{{query") {
		t = strings.TrimPrefix(t, "{{query")
		t = strings.TrimSuffix(strings.TrimSpace(t), "}}")
	}
	return strings.TrimSpace(t)
}

// Parse parses a query. It never fails: unknown or malformed parts become
// Invalid nodes, which match nothing.
func Parse(text string) *Query {
	q := &Query{Text: StripWrapper(text)}
	p := &parser{toks: tokenize(q.Text), query: q}
	q.Root = p.parseTop()
	return q
}

type parser struct {
	toks  []token
	pos   int
	query *Query
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseTop() Node {
	first := p.peek()
	switch first.kind {
	case tokEOF:
		return &Invalid{Reason: "empty query"}
	case tokWord:
		// Bare top-level text is a full-text search over the raw query.
		text := strings.ReplaceAll(p.query.Text, `"`, "")
		text = strings.TrimSpace(text)
		if utf8.RuneCountInString(text) <= 2 {
			return &Invalid{Reason: "search text too short"}
		}
		return &Text{Value: text}
	}

	var nodes []Node
	for p.peek().kind != tokEOF {
		if p.peek().kind == tokRParen {
			p.next()
			continue
		}
		if n := p.parseOperand(); n != nil {
			nodes = append(nodes, n)
		}
	}
	switch len(nodes) {
	case 0:
		return &Invalid{Reason: "no expression"}
	case 1:
		return nodes[0]
	}
	return &And{Operands: nodes}
}

// parseOperand parses one operand of a boolean form. Bare words are not
// operands and yield nil.
func (p *parser) parseOperand() Node {
	t := p.next()
	switch t.kind {
	case tokLParen:
		return p.parseForm()
	case tokPageRef:
		return &PageRef{Name: stripPagesPrefix(t.text)}
	case tokString:
		return &Text{Value: t.text}
	}
	return nil
}

// parseForm parses the remainder of a form whose "(" was consumed.
func (p *parser) parseForm() Node {
	head := p.peek()
	if head.kind != tokWord {
		// A form without an operator: treat as a grouping of its operands.
		return p.parseBoolean(func(ops []Node) Node { return &And{Operands: ops} })
	}
	p.next()
	op := strings.ToLower(head.text)
	switch op {
	case "and":
		return p.parseBoolean(func(ops []Node) Node { return &And{Operands: ops} })
	case "or":
		return p.parseBoolean(func(ops []Node) Node { return &Or{Operands: ops} })
	case "not":
		return p.parseBoolean(func(ops []Node) Node { return &Not{Operands: ops} })
	}

	args := p.parseArgs()
	switch op {
	case "page":
		if len(args) == 0 {
			return &Invalid{Reason: "page needs a name"}
		}
		return &Page{Name: stripPagesPrefix(args[0].text)}
	case "page-tags", "page-tag":
		n := &PageTags{}
		for _, a := range args {
			tag := strings.TrimPrefix(stripPagesPrefix(a.text), "#")
			if tag != "" {
				n.Tags = append(n.Tags, strings.ToLower(tag))
			}
		}
		if len(n.Tags) == 0 {
			return &Invalid{Reason: "page-tags needs a tag"}
		}
		return n
	case "namespace":
		if len(args) == 0 {
			return &Invalid{Reason: "namespace needs a name"}
		}
		return &Namespace{NS: strings.ToLower(stripPagesPrefix(args[0].text))}
	case "property", "page-property":
		if len(args) == 0 {
			return &Invalid{Reason: "property needs a key"}
		}
		n := &Property{Key: normalizeKey(args[0].text)}
		if len(args) > 1 {
			n.Value = args[1].text
			n.HasValue = true
		}
		if n.Key == "" {
			return &Invalid{Reason: "property needs a key"}
		}
		return n
	case "task", "todo":
		states := make([]string, len(args))
		for i, a := range args {
			states[i] = a.text
		}
		n := newTask(states)
		if len(n.States) == 0 {
			return &Invalid{Reason: "task needs a known state"}
		}
		return n
	case "priority":
		n := &Priority{}
		for _, a := range args {
			lvl := strings.ToUpper(strings.TrimSpace(a.text))
			if lvl == "A" || lvl == "B" || lvl == "C" {
				n.Levels = append(n.Levels, lvl)
			}
		}
		if len(n.Levels) == 0 {
			return &Invalid{Reason: "priority needs A, B or C"}
		}
		return n
	case "between":
		n := &Between{}
		if len(args) == 2 {
			from, okFrom := ParseDate(args[0].text)
			to, okTo := ParseDate(args[1].text)
			n.From, n.To, n.Valid = from, to, okFrom && okTo
		}
		return n
	case "all-page-tags":
		return &AllPageTags{}
	case "sort-by":
		n := &SortBy{}
		if len(args) > 0 {
			n.Key = strings.TrimPrefix(strings.ToLower(args[0].text), ":")
		}
		if len(args) > 1 {
			n.Desc = strings.EqualFold(args[1].text, "desc")
		}
		if n.Key != "" && p.query.Sort == nil {
			p.query.Sort = n
		}
		return n
	}
	return &Invalid{Reason: "unknown operator " + op}
}

func (p *parser) parseBoolean(build func([]Node) Node) Node {
	var ops []Node
	for {
		switch p.peek().kind {
		case tokEOF:
			return build(ops)
		case tokRParen:
			p.next()
			return build(ops)
		}
		if n := p.parseOperand(); n != nil {
			ops = append(ops, n)
		}
	}
}

// parseArgs collects the simple arguments of a predicate up to its closing
// paren. Nested forms are skipped whole.
func (p *parser) parseArgs() []token {
	var args []token
	for {
		t := p.next()
		switch t.kind {
		case tokEOF, tokRParen:
			return args
		case tokLParen:
			p.skipForm()
		default:
			args = append(args, t)
		}
	}
}

func (p *parser) skipForm() {
	depth := 1
	for depth > 0 {
		switch p.next().kind {
		case tokEOF:
			return
		case tokLParen:
			depth++
		case tokRParen:
			depth--
		}
	}
}

// normalizeKey lowercases a property key and drops a leading colon and
// every hyphen.
func normalizeKey(key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), ":")
	return strings.ReplaceAll(strings.ToLower(key), "-", "")
}
