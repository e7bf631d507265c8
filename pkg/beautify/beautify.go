// Package beautify reformats rendered HTML. It works on the token stream, so
// the markup is never restructured: attribute values and text are copied
// byte for byte, only whitespace between tags changes.
package beautify

import (
	"io"
	"regexp"
	"strings"

	"github.com/vango-dev/jsonpage/pkg/render"
	"golang.org/x/net/html"
)

// DefaultIndent is used when Options.Indent is empty.
const DefaultIndent = "  "

// Options configures PrettyPrint.
type Options struct {
	Indent string
}

func (o Options) indent() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}

// Elements whose content is whitespace sensitive or not markup.
var preserved = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

type token struct {
	typ  html.TokenType
	raw  string
	name string
}

func (t token) closes(name string) bool {
	return t.typ == html.EndTagToken && t.name == name
}

func tokenize(src string) ([]token, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var toks []token
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			return toks, nil
		}
		t := token{typ: tt, raw: string(z.Raw())}
		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			t.name = string(name)
		}
		toks = append(toks, t)
	}
}

// PrettyPrint puts every element on its own line, indented by depth.
// Elements holding only text stay on one line. The content of pre,
// textarea, script and style is left untouched.
func PrettyPrint(src string, opts Options) (string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return "", err
	}

	p := printer{indent: opts.indent()}
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.typ {
		case html.TextToken:
			if text := strings.TrimSpace(t.raw); text != "" {
				p.line(text)
			}
		case html.StartTagToken:
			if render.IsVoidElement(t.name) {
				p.line(t.raw)
				continue
			}
			if preserved[t.name] {
				end := matching(toks, i)
				p.line(join(toks[i : end+1]))
				i = end
				continue
			}
			if i+1 < len(toks) && toks[i+1].closes(t.name) {
				p.line(t.raw + toks[i+1].raw)
				i++
				continue
			}
			if i+2 < len(toks) && toks[i+1].typ == html.TextToken && toks[i+2].closes(t.name) {
				p.line(t.raw + strings.TrimSpace(toks[i+1].raw) + toks[i+2].raw)
				i += 2
				continue
			}
			p.line(t.raw)
			p.depth++
		case html.EndTagToken:
			if !render.IsVoidElement(t.name) && p.depth > 0 {
				p.depth--
			}
			p.line(t.raw)
		default:
			p.line(t.raw)
		}
	}
	return p.String(), nil
}

type printer struct {
	b      strings.Builder
	indent string
	depth  int
}

func (p *printer) line(s string) {
	for i := 0; i < p.depth; i++ {
		p.b.WriteString(p.indent)
	}
	p.b.WriteString(s)
	p.b.WriteByte('\n')
}

func (p *printer) String() string { return p.b.String() }

// matching returns the index of the end tag closing the start tag at i, or
// the last index when it is never closed.
func matching(toks []token, i int) int {
	name := toks[i].name
	depth := 0
	for j := i; j < len(toks); j++ {
		switch {
		case toks[j].typ == html.StartTagToken && toks[j].name == name:
			depth++
		case toks[j].closes(name):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(toks) - 1
}

func join(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.raw)
	}
	return b.String()
}

var spaceRun = regexp.MustCompile(`\s+`)

// Minify removes comments and formatting whitespace. Whitespace-only text
// containing a line break is dropped; other runs of whitespace collapse to a
// single space. Preserved elements are copied as is.
func Minify(src string) (string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	inPreserved := 0
	for _, t := range toks {
		switch t.typ {
		case html.TextToken:
			if inPreserved > 0 {
				b.WriteString(t.raw)
				continue
			}
			if strings.TrimSpace(t.raw) == "" && strings.ContainsAny(t.raw, "\r\n") {
				continue
			}
			b.WriteString(spaceRun.ReplaceAllString(t.raw, " "))
		case html.CommentToken:
			continue
		case html.StartTagToken:
			if preserved[t.name] {
				inPreserved++
			}
			b.WriteString(t.raw)
		case html.EndTagToken:
			if preserved[t.name] && inPreserved > 0 {
				inPreserved--
			}
			b.WriteString(t.raw)
		default:
			b.WriteString(t.raw)
		}
	}
	return b.String(), nil
}
