package metadata

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type pageMeta struct {
	og    map[string]string
	title string
}

// parsePage collects og:* meta properties and the document <title>. The
// first occurrence of each og property wins.
func parsePage(r io.Reader) (pageMeta, error) {
	pm := pageMeta{og: map[string]string{}}
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return pm, err
			}
			return pm, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Title:
				inTitle = pm.title == ""
			case atom.Meta:
				var prop, content string
				for _, a := range tok.Attr {
					switch strings.ToLower(a.Key) {
					case "property":
						prop = strings.ToLower(a.Val)
					case "content":
						content = a.Val
					}
				}
				if name, ok := strings.CutPrefix(prop, "og:"); ok && content != "" {
					if _, seen := pm.og[name]; !seen {
						pm.og[name] = content
					}
				}
			}

		case html.TextToken:
			if inTitle {
				pm.title = strings.TrimSpace(string(z.Text()))
				inTitle = false
			}

		case html.EndTagToken:
			if tok := z.Token(); tok.DataAtom == atom.Title {
				inTitle = false
			}
		}
	}
}
