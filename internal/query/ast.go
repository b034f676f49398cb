package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/cyberia-to/publish-quartz/internal/models"
)

// Node is one evaluable expression of a parsed query.
type Node interface {
	eval(e *evaluator) []*models.Document
}

// predicate is a leaf node that tests documents one at a time.
type predicate interface {
	Node
	match(e *evaluator, d *models.Document) bool
}

// And intersects its operands, keeping the order of the first one.
type And struct{ Operands []Node }

// Or unions its operands in first-seen order.
type Or struct{ Operands []Node }

// Not is the complement of the union of its operands.
type Not struct{ Operands []Node }

// Page matches a document by exact name.
type Page struct{ Name string }

// PageTags matches documents carrying any of Tags.
type PageTags struct{ Tags []string }

// Namespace matches documents whose namespace is exactly NS.
type Namespace struct{ NS string }

// Property tests a page property. With no Value it checks for presence.
type Property struct {
	Key      string
	Value    string
	HasValue bool
}

// Task matches documents containing any of the task States.
type Task struct {
	States []string
	re     *regexp.Regexp
}

// Priority matches documents containing any of the priority Levels.
type Priority struct{ Levels []string }

// Between matches documents whose name is a date in [From, To].
type Between struct {
	From, To time.Time
	Valid    bool
}

// AllPageTags matches documents whose name is used as a tag somewhere.
type AllPageTags struct{}

// SortBy is a directive carried by the query. It never filters.
type SortBy struct {
	Key  string
	Desc bool
}

// PageRef matches a document by name or by a body reference to it.
type PageRef struct{ Name string }

// Text matches a substring of the document body.
type Text struct{ Value string }

// Invalid stands for anything that could not be understood.
type Invalid struct{ Reason string }

// TaskStates are the task markers a task predicate accepts.
var TaskStates = []string{"TODO", "DONE", "NOW", "DOING", "LATER", "WAITING", "CANCELLED"}

func newTask(states []string) *Task {
	valid := map[string]bool{}
	for _, s := range TaskStates {
		valid[s] = true
	}
	t := &Task{}
	for _, s := range states {
		s = strings.ToUpper(strings.TrimSpace(s))
		if valid[s] {
			t.States = append(t.States, s)
		}
	}
	if len(t.States) > 0 {
		t.re = regexp.MustCompile(`(?m)^[ \t]*(?:[-*][ \t]+)?(?:` + strings.Join(t.States, "|") + `)(?:\s|$)`)
	}
	return t
}

func stripPagesPrefix(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 6 && strings.EqualFold(name[:6], "pages/") {
		return name[6:]
	}
	return name
}
