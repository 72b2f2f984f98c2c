package wap

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true,
}

// innerText renders the text of sel the way a browser lays it out: <br> and
// block elements break lines, scripts and styles are skipped.
func innerText(sel *goquery.Selection) string {
	var b strings.Builder
	atBreak := true

	write := func(s string) {
		if s == "" {
			return
		}
		b.WriteString(s)
		atBreak = strings.HasSuffix(s, "\n")
	}
	breakLine := func() {
		if !atBreak {
			write("\n")
		}
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			write(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				write("\n")
				return
			}
		}

		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			breakLine()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			breakLine()
		}
	}

	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	return b.String()
}

// numericSuffix returns the last run of digits in the URL path, e.g. "2" for
// "/xs12/3456_2.html".
func numericSuffix(pageURL string) string {
	p := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		p = u.Path
	}

	all := reDigits.FindAllString(p, -1)
	if len(all) == 0 {
		return ""
	}

	return all[len(all)-1]
}

// findTrailer returns the text of the first inline script mentioning token.
// Some pages push the tail of a chapter page through such a script.
func findTrailer(doc *goquery.Document, token string) string {
	if token == "" {
		return ""
	}

	var out string
	doc.Find("script").EachWithBreak(func(_ int, sc *goquery.Selection) bool {
		t := sc.Text()
		if strings.TrimSpace(t) == "" || !strings.Contains(t, token) {
			return true
		}
		out = t

		return false
	})

	return out
}
