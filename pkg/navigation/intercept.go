package navigation

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NearestAnchor walks from n up through its ancestors and returns the first
// <a> element, or nil.
func NearestAnchor(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && cur.DataAtom == atom.A {
			return cur
		}
	}
	return nil
}

// AnchorHref returns the href of the nearest anchor around n.
func AnchorHref(n *html.Node) (string, bool) {
	a := NearestAnchor(n)
	if a == nil {
		return "", false
	}
	for _, attr := range a.Attr {
		if attr.Namespace == "" && strings.EqualFold(attr.Key, "href") {
			href := strings.TrimSpace(attr.Val)
			return href, href != ""
		}
	}
	return "", false
}

func (r *Router) handleIntent(ev *Intent) {
	if ev == nil || ev.DefaultPrevented() {
		return
	}
	href, ok := AnchorHref(ev.Target)
	if !ok {
		return
	}
	doc := r.env.Location()
	u, err := doc.Parse(href)
	if err != nil {
		r.logger.Debug("ignoring unparsable link", zap.String("href", href), zap.Error(err))
		return
	}
	if !SameOrigin(doc, u) {
		return
	}
	ev.PreventDefault()
	path := u.Path
	if path == "" {
		path = "/"
	}
	r.Navigate(path, true)
}
