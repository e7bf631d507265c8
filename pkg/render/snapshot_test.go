package render

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func TestRenderSnapshots(t *testing.T) {
	docs := map[string]string{
		"landing": `{
			"components": {
				"Nav": {
					"props": {"active": "home"},
					"content": [{"nav": [
						{"a": "Home", "href": "/", "class": ["link", "${active}"]},
						{"a": "Docs", "href": "/docs", "class": "link"}
					]}]
				},
				"Card": {
					"props": {"title": "Untitled", "tone": "plain"},
					"content": [{"section": [{"h2": "${title}"}, "${children}"], "class": ["card", "card-${tone}"]}]
				}
			},
			"page": [
				{"head": [{"meta": null, "charset": "utf-8"}, {"title": "jsonpage"}, {"style": {"body": {"margin": 0, "nav": {"display": "flex"}}}}]},
				{"body": [
					"Nav",
					{"Card": [{"p": "Pages from JSON."}], "title": "Hello", "tone": "accent"},
					{"ul": [{"@each": [{"li": "${item}"}], "items": ["fast", "small", 3]}]},
					"hr"
				]}
			]
		}`,
		"fragment": `[
			{"tag": "form", "action": "/search", "children": [
				{"input": null, "type": "search", "name": "q"},
				{"button": "Go", "type": "submit"}
			]},
			{"tag": "script", "raw": "console.log(1 < 2)"}
		]`,
	}

	contains := map[string][]string{
		"landing": {
			`<!doctype html><html><head>`,
			`<style type="text/css">body {margin: 0;nav {display: flex;}}</style>`,
			`<a href="/" class="link home">Home</a>`,
			`<section class="card card-accent"><h2>Hello</h2><p>Pages from JSON.</p></section>`,
			`<ul><li>fast</li><li>small</li><li>3</li></ul><hr /></body></html>`,
		},
		"fragment": {
			`<input type="search" name="q" />`,
			`<script>console.log(1 < 2)</script>`,
		},
	}

	for _, name := range []string{"landing", "fragment"} {
		t.Run(name, func(t *testing.T) {
			result, err := NewRenderer(RendererConfig{}).Render(context.Background(), mustParse(t, docs[name]))
			if err != nil {
				t.Fatal(err)
			}
			if !result.OK() {
				t.Fatal(result.Errors)
			}
			for _, want := range contains[name] {
				if !strings.Contains(result.Output, want) {
					t.Errorf("output lacks %s", want)
				}
			}
			snaps.MatchSnapshot(t, result.Output)
		})
	}
}
