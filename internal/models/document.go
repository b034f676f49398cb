// Package models defines the domain types shared by the index, query and publish layers.
package models

import "strings"

// Document is one parsed page or journal of a graph.
type Document struct {
	Name       string            `json:"name"`
	NameLower  string            `json:"-"`
	Path       string            `json:"path"`
	Body       string            `json:"-"`
	BodyLower  string            `json:"-"`
	Properties map[string]string `json:"properties,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Aliases    []string          `json:"aliases,omitempty"`
	Namespace  string            `json:"namespace,omitempty"`
	Modified   string            `json:"modified,omitempty"`
	Created    string            `json:"created,omitempty"`
}

// Property returns the value stored under key, or "" if absent.
func (d *Document) Property(key string) string {
	if d.Properties == nil {
		return ""
	}
	return d.Properties[key]
}

// HasTag reports whether the document carries tag (compared lowercase).
func (d *Document) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Title returns the display title: the title property, else the name with
// underscores turned into spaces.
func (d *Document) Title() string {
	if t := d.Property("title"); t != "" {
		return t
	}
	return strings.ReplaceAll(d.Name, "_", " ")
}

// IconTitle returns Title prefixed by the icon property when one is set.
func (d *Document) IconTitle() string {
	if icon := d.Property("icon"); icon != "" {
		return icon + " " + d.Title()
	}
	return d.Title()
}

// Private reports whether the page opted out of publishing.
func (d *Document) Private() bool {
	return strings.EqualFold(strings.TrimSpace(d.Property("private")), "true")
}

// Source is one raw file handed to the index builder.
type Source struct {
	// Path is relative to the graph root, slash separated.
	Path string
	Data []byte
}

// FileDates holds the first and last commit dates of a file (YYYY-MM-DD).
type FileDates struct {
	Modified string
	Created  string
}
