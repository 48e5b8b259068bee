package transform

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/fundus/internal/model"
)

// StripHTML replaces markup in a string field with its visible text.
// Non-string values are a schema violation.
func StripHTML(field string) Chain {
	return New("strip_html("+field+")", func(r model.Record) (model.Record, bool, error) {
		v := r.Get(field)
		if v.IsMissing() {
			return r, true, nil
		}
		s, ok := v.Str()
		if !ok {
			return model.Record{}, false, &model.SchemaViolation{Field: field, Expected: model.KindString, Got: v.Kind()}
		}

		text, err := visibleText(s)
		if err != nil {
			return model.Record{}, false, &model.SchemaViolation{Field: field, Expected: model.KindString, Got: model.KindString, Reason: fmt.Sprintf("parse html: %v", err)}
		}
		return r.With(field, model.String(text)), true, nil
	})
}

// visibleText extracts text nodes, skipping scripts and styles, with whitespace collapsed
func visibleText(fragment string) (string, error) {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " "), nil
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.Join(words, " "), nil
}
