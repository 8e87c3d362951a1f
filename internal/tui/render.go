package tui

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// link is an anchor found while rendering. Node belongs to the parsed
// fragment so it can be activated as-is.
type link struct {
	Text string
	Href string
	Node *html.Node
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Main: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true,
}

// renderHTML flattens a page fragment into plain text. Every anchor is
// suffixed with its index in the returned links.
func renderHTML(fragment string) (string, []link, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", nil, err
	}
	// Parented under a root so NearestAnchor can walk up from text nodes.
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	r := &textRenderer{}
	r.walk(root)
	return r.text(), r.links, nil
}

type textRenderer struct {
	lines []string
	cur   strings.Builder
	links []link
}

func (r *textRenderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.word(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head, atom.Template:
			return
		case atom.Br:
			r.newline()
			return
		case atom.Img:
			if alt := attr(n, "alt"); alt != "" {
				r.word("[" + alt + "]")
			}
			return
		case atom.A:
			start := len(r.links)
			r.links = append(r.links, link{Href: attr(n, "href"), Node: n})
			var inner textRenderer
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				inner.walk(c)
			}
			txt := strings.Join(strings.Fields(inner.text()), " ")
			r.links[start].Text = txt
			r.word(txt + " [" + strconv.Itoa(start+1) + "]")
			return
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.DataAtom]
	if block {
		r.newline()
		if n.DataAtom == atom.Li {
			r.cur.WriteString("• ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
	if block {
		r.newline()
	}
}

func (r *textRenderer) word(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return
	}
	cur := r.cur.String()
	if cur != "" && !strings.HasSuffix(cur, " ") {
		r.cur.WriteByte(' ')
	}
	r.cur.WriteString(strings.Join(fields, " "))
}

func (r *textRenderer) newline() {
	line := strings.TrimSpace(r.cur.String())
	r.cur.Reset()
	if line == "" || line == "•" {
		return
	}
	r.lines = append(r.lines, line)
}

func (r *textRenderer) text() string {
	r.newline()
	return strings.Join(r.lines, "\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}
