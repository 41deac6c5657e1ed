package main

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// plainText converts the HTML fragments the API uses for comment, story and
// profile text into plain text. Paragraphs are separated by blank lines.
func plainText(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return html.UnescapeString(fragment)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.P:
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case atom.Br:
				sb.WriteString("\n")
				return
			case atom.A:
				link := goquery.NewDocumentFromNode(n)
				text := link.Text()
				href, _ := link.Attr("href")
				switch {
				case href == "" || href == text:
					sb.WriteString(text)
				case strings.HasSuffix(text, "..."):
					// the API shortens long link texts
					sb.WriteString(href)
				default:
					sb.WriteString(text + " (" + href + ")")
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			walk(n)
		}
	})
	return strings.TrimSpace(sb.String())
}

// extractDomain returns the host of a link without a leading "www."
func extractDomain(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
