package features

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Tag-shaped markup: "<" followed by a letter, "/", or "!".
var tagRe = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// CleanContent strips markup from message content when it looks like HTML.
// Plain text passes through untouched, so bare angle brackets in ordinary
// chat ("send >100 files", "amount < 1 btc") survive.
func CleanContent(content string) string {
	if !tagRe.MatchString(content) {
		return content
	}
	return visibleText(content)
}

// visibleText collects text nodes, skipping script/style/noscript/iframe.
func visibleText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(buf.String())
}
