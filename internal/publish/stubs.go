package publish

import (
	"path"
	"strings"

	fm "github.com/cyberia-to/publish-quartz/internal/frontmatter"
)

const stubBody = "> [!note] Stub Page\n> This page was auto-generated.\n"

var assetExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {},
	".bmp": {}, ".ico": {}, ".pdf": {}, ".mp4": {}, ".webm": {}, ".mov": {},
	".mp3": {}, ".wav": {}, ".ogg": {}, ".m4a": {}, ".zip": {}, ".excalidraw": {},
}

var stubPathReplacer = strings.NewReplacer(
	`\`, "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// stubTarget reports whether a missing link target should get a stub page.
func stubTarget(target string) bool {
	lower := strings.ToLower(target)
	for _, dir := range []string{JournalsDir + "/", "favorites/", AssetsDir + "/"} {
		if strings.HasPrefix(lower, dir) {
			return false
		}
	}
	if strings.HasPrefix(lower, "http") || strings.Contains(lower, "://") || strings.HasPrefix(lower, "#") {
		return false
	}
	if n := len(target); n < 2 || n > 200 {
		return false
	}
	if _, ok := assetExts[path.Ext(lower)]; ok {
		return false
	}
	return true
}

// stubPath maps a link target onto its stub file, keeping namespace
// separators.
func stubPath(target string) string {
	return stubPathReplacer.Replace(target) + ".md"
}

func stubPage(target string) []byte {
	title := strings.ReplaceAll(target, "_", " ")
	return []byte(fm.MustRender(fm.Stub(title)) + "\n" + stubBody)
}
