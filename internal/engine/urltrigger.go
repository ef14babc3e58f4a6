package engine

import (
	"log/slog"
	"strings"
)

// VarURLTriggers is the agent variable holding keyword=url pairs, comma
// separated, e.g. "inventory=https://shop.example.com,hours=https://example.com/hours".
const VarURLTriggers = "url_triggers"

type urlMatch struct {
	Keyword string
	URL     string
}

// matchURLTriggers scans the lead's last message for configured keywords and
// returns the links to append. Malformed pairs are skipped.
func matchURLTriggers(log *slog.Logger, variables map[string]string, lastUserMessage string) []urlMatch {
	raw := variables[VarURLTriggers]
	if raw == "" || lastUserMessage == "" {
		return nil
	}
	lower := strings.ToLower(lastUserMessage)
	matches := []urlMatch{}
	for _, pair := range strings.Split(raw, ",") {
		keyword, url, ok := strings.Cut(pair, "=")
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		url = strings.TrimSpace(url)
		if !ok || keyword == "" || url == "" {
			continue
		}
		if strings.Contains(lower, keyword) {
			log.Debug("url trigger matched",
				slog.String("keyword", keyword), slog.String("url", url))
			matches = append(matches, urlMatch{Keyword: keyword, URL: url})
		}
	}
	return matches
}

// urlFooter formats the matched links as a plain-text footer.
func urlFooter(matches []urlMatch) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nHere are some links that might help:\n")
	for _, m := range matches {
		b.WriteString("- ")
		b.WriteString(m.Keyword)
		b.WriteString(": ")
		b.WriteString(m.URL)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
