package profile

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// parsePage extracts the first rating, order counter and gig title.
func parsePage(r io.Reader) (Profile, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Rating: textOf(find(doc, "span", "rating-score")),
		Orders: textOf(find(doc, "strong", "total-orders")),
		TopGig: textOf(find(doc, "h3", "gig-title")),
	}, nil
}

// find returns the first element named tag whose class list contains class.
func find(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := find(child, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	if n == nil {
		return notAvailable
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		return notAvailable
	}
	return text
}
