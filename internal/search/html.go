package search

import (
	"io"
	"regexp"
	"strings"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

var ddgResultRe = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>.*?<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
var tagStripRe = regexp.MustCompile(`<[^>]+>`)

// parseDuckDuckGoHTML extracts (title, url, snippet) triples from the
// scraped HTML results page. DuckDuckGo's HTML endpoint has no stable
// JSON contract, so this is deliberately tolerant: malformed or
// unexpected markup just yields fewer results, never an error.
func parseDuckDuckGoHTML(body string, limit int) []Result {
	matches := ddgResultRe.FindAllStringSubmatch(body, -1)
	out := make([]Result, 0, limit)
	for _, m := range matches {
		if len(out) >= limit {
			break
		}
		title := strings.TrimSpace(tagStripRe.ReplaceAllString(m[2], ""))
		snippet := strings.TrimSpace(tagStripRe.ReplaceAllString(m[3], ""))
		if title == "" {
			continue
		}
		out = append(out, Result{Title: title, URL: m[1], Snippet: snippet, SourceLabel: "duckduckgo"})
	}
	return out
}
