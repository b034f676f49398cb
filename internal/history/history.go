// Package history derives per-file modified and created dates from git.
package history

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/cyberia-to/publish-quartz/internal/models"
)

// Lookup runs a single git log in dir and returns dates keyed by path
// relative to dir, which may be a subdirectory of the repository.
func Lookup(ctx context.Context, dir string) (map[string]models.FileDates, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "--format=%aI", "--name-only", "--diff-filter=AM", "--relative")
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("history: git log: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return Parse(bytes.NewReader(out))
}

// Parse reads git log output, newest commit first. The first date a file is
// seen with becomes its modified date and the last becomes its created date.
func Parse(r io.Reader) (map[string]models.FileDates, error) {
	out := make(map[string]models.FileDates)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	current := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case isDateLine(line):
			current = line[:10]
		case strings.HasSuffix(line, ".md") && current != "":
			d, seen := out[line]
			if !seen {
				d.Modified = current
			}
			d.Created = current
			out[line] = d
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history: read log: %w", err)
	}
	return out, nil
}

func isDateLine(line string) bool {
	return len(line) >= 10 && strings.HasPrefix(line, "20") && strings.Contains(line, "T") &&
		line[4] == '-' && line[7] == '-'
}
