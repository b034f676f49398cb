// Package frontmatter renders the YAML header Quartz reads from each page.
package frontmatter

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cyberia-to/publish-quartz/internal/models"
)

// Field is one frontmatter entry. Value is a string, a []string, a bool or
// a Date.
type Field struct {
	Key   string
	Value any
}

// Date is a YYYY-MM-DD value written unquoted so YAML reads it as a date.
type Date string

// Page returns the header fields of a published page.
func Page(doc *models.Document) []Field {
	fields := []Field{{Key: "title", Value: doc.IconTitle()}}
	if icon := doc.Property("icon"); icon != "" {
		fields = append(fields, Field{Key: "icon", Value: icon})
	}
	if len(doc.Tags) > 0 {
		fields = append(fields, Field{Key: "tags", Value: doc.Tags})
	}
	if len(doc.Aliases) > 0 {
		fields = append(fields, Field{Key: "aliases", Value: doc.Aliases})
	}
	if desc := doc.Property("description"); desc != "" {
		fields = append(fields, Field{Key: "description", Value: desc})
	}
	if doc.Modified != "" {
		fields = append(fields, Field{Key: "modified", Value: Date(doc.Modified)})
	}
	if doc.Created != "" {
		fields = append(fields, Field{Key: "created", Value: Date(doc.Created)})
	}
	return fields
}

// Journal returns the header fields of a published journal day.
func Journal(title, date string, tags []string) []Field {
	fields := []Field{
		{Key: "title", Value: title},
		{Key: "date", Value: Date(date)},
	}
	if len(tags) > 0 {
		fields = append(fields, Field{Key: "tags", Value: tags})
	}
	return fields
}

// Stub returns the header fields of a generated placeholder page.
func Stub(title string) []Field {
	return []Field{
		{Key: "title", Value: title},
		{Key: "stub", Value: true},
	}
}

// Title returns a header holding only a title.
func Title(title string) []Field {
	return []Field{{Key: "title", Value: title}}
}

// Render encodes fields in order between --- delimiters. Strings are
// double-quoted.
func Render(fields []Field) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		value, err := valueNode(f.Value)
		if err != nil {
			return "", fmt.Errorf("frontmatter: field %s: %w", f.Key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: f.Key},
			value,
		)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(fields) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("frontmatter: encode: %w", err)
		}
	}
	buf.WriteString("---\n")
	return buf.String(), nil
}

// MustRender is Render for fields built by this package, which always encode.
func MustRender(fields []Field) string {
	out, err := Render(fields)
	if err != nil {
		panic(err)
	}
	return out
}

func valueNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case string:
		return quoted(val), nil
	case Date:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: string(val)}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(val)}, nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, s := range val {
			seq.Content = append(seq.Content, quoted(s))
		}
		return seq, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}
