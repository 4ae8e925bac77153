package portal

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/tartampluch/go-payslip/internal/config"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// formState is the ASP.NET postback state carried from one page to the next.
type formState struct {
	ViewState          string
	EventValidation    string
	ViewStateGenerator string
}

// values builds a postback form raising target. Additional fields are added
// by the caller.
func (f formState) values(target string) url.Values {
	v := url.Values{}
	v.Set(config.FieldEventTarget, target)
	v.Set(config.FieldEventArgument, "")
	v.Set(config.FieldViewState, f.ViewState)
	v.Set(config.FieldEventValidation, f.EventValidation)
	v.Set(config.FieldViewStateGenerator, f.ViewStateGenerator)
	return v
}

// hiddenFields reads the postback state of a page. Missing inputs read as
// empty; __VIEWSTATEGENERATOR is optional on some pages.
func hiddenFields(doc *html.Node) formState {
	read := func(name string) string {
		n := find(doc, func(n *html.Node) bool {
			return n.DataAtom == atom.Input && attr(n, "name") == name
		})
		if n == nil {
			slog.Debug(config.MsgNoHiddenField,
				config.LogKeyComponent, config.CompPortal,
				config.LogKeyField, name,
			)
			return ""
		}
		return attr(n, "value")
	}
	return formState{
		ViewState:          read(config.FieldViewState),
		EventValidation:    read(config.FieldEventValidation),
		ViewStateGenerator: read(config.FieldViewStateGenerator),
	}
}

// listRow is one payslip entry of the list page.
type listRow struct {
	Label  string
	Button string
}

// scanList returns the rows of table#tdb whose label names the era-year
// marker and which carry a detail button. The first row is the header.
func scanList(doc *html.Node, marker string) []listRow {
	table := find(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Table && attr(n, "id") == config.ListTableID
	})
	if table == nil {
		return nil
	}

	trs := findAll(table, byAtom(atom.Tr))
	if len(trs) <= 1 {
		return nil
	}

	var rows []listRow
	for _, tr := range trs[1:] {
		cells := findAll(tr, byAtom(atom.Td))
		if len(cells) < 3 {
			continue
		}
		label := text(cells[2])
		if !strings.Contains(label, marker) {
			continue
		}
		button := find(cells[1], byAtom(atom.Input))
		if button == nil || attr(button, "name") == "" {
			continue
		}
		rows = append(rows, listRow{Label: label, Button: attr(button, "name")})
	}
	return rows
}

func byAtom(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// find returns the first descendant of n (depth first) matching match.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// text concatenates the trimmed text pieces below n.
func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		if p.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(p.Data))
			return
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
