package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Br: true, atom.Li: true, atom.Ul: true,
	atom.Ol: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Tr: true, atom.Table: true,
	atom.Blockquote: true, atom.Main: true, atom.Aside: true, atom.Nav: true,
}

var skipAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
	atom.Head: true,
}

// blockText возвращает текст выделения с переводами строк между блочными
// элементами, как innerText в браузере. Пустые строки схлопываются.
func blockText(sel *goquery.Selection) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipAtoms[n.DataAtom] {
				return
			}
		}

		block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if block {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(normalizeSpaces(sb.String()), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// probeValues возвращает значения всех элементов, найденных пробой, в порядке документа.
func probeValues(doc *goquery.Document, p Probe) []string {
	var values []string
	doc.Find(p.Selector).Each(func(_ int, s *goquery.Selection) {
		var v string
		if p.Attr != "" {
			v, _ = s.Attr(p.Attr)
		} else {
			v = s.Text()
		}
		v = collapse(v)
		if v != "" {
			values = append(values, v)
		}
	})
	return values
}
