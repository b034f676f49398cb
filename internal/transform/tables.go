package transform

import (
	"strings"
)

// repairTables makes sure every bulleted table has a separator row with the
// header's column count, dropping separator rows of any other width.
func (p *Pipeline) repairTables(s string) string {
	if !strings.Contains(s, "|") {
		return s
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if !isTableRow(lines[i]) {
			out = append(out, lines[i])
			continue
		}
		j := i + 1
		for j < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j]), "|") {
			j++
		}
		out = append(out, fixTable(lines[i:j])...)
		i = j - 1
	}
	return strings.Join(out, "\n")
}

func fixTable(block []string) []string {
	if len(block) < 2 {
		return block
	}
	header := block[0]
	cols := columnCount(rowContent(header))
	valid := false
	for _, row := range block[1:] {
		if isSeparator(row) && columnCount(strings.TrimSpace(row)) == cols {
			valid = true
			break
		}
	}

	out := make([]string, 0, len(block)+1)
	out = append(out, header)
	if !valid {
		out = append(out, continuationPrefix(header)+"|"+strings.Repeat("---|", cols))
	}
	for _, row := range block[1:] {
		if isSeparator(row) && columnCount(strings.TrimSpace(row)) != cols {
			continue
		}
		out = append(out, row)
	}
	return out
}

// rowContent strips indentation and a list marker from line.
func rowContent(line string) string {
	t := strings.TrimSpace(line)
	if strings.HasPrefix(t, "- ") || t == "-" {
		t = strings.TrimSpace(strings.TrimPrefix(t, "-"))
	}
	return t
}

func isTableRow(line string) bool {
	c := rowContent(line)
	return strings.HasPrefix(c, "|") && strings.Count(c, "|") >= 2
}

func isSeparator(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "|") || !strings.Contains(t, "-") {
		return false
	}
	for _, r := range t {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// columnCount counts the cells of a pipe-delimited row.
func columnCount(row string) int {
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	return strings.Count(row, "|") + 1
}

// continuationPrefix is the indentation of the lines that follow header in
// the same list item.
func continuationPrefix(header string) string {
	i := strings.Index(header, "|")
	prefix := header[:i]
	if j := strings.LastIndex(prefix, "- "); j >= 0 {
		prefix = prefix[:j] + "  " + prefix[j+2:]
	}
	return prefix
}
