package traffic

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrNoHiddenInput = errors.New("no hidden input in page")

// HiddenInputValue returns the value of the first <input type="hidden">.
func HiddenInputValue(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return "", ErrNoHiddenInput
	}
	return attr(found, "value"), nil
}

// BoxCounts returns the integer inside every <b> that is a direct child of
// an element with the given class, in document order.
func BoxCounts(r io.Reader, class string) ([]int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	var (
		out     []int
		walkErr error
	)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || !hasClass(n, class) {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.DataAtom != atom.B {
				continue
			}
			v, err := leadingInt(text(c))
			if err != nil {
				walkErr = fmt.Errorf(".%s > b: %w", class, err)
				return false
			}
			out = append(out, v)
		}
		return true
	})
	return out, walkErr
}

// walk visits n depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// leadingInt parses the integer at the start of s, ignoring anything after
// it ("12 / 50" is 12).
func leadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || (end == 0 && s[end] == '-')) {
		end++
	}
	return strconv.Atoi(s[:end])
}
