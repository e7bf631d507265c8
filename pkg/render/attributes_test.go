package render

import (
	"testing"
)

func TestSerializeAttributes(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		ignored []string
		want    string
	}{
		{"declared order", `{"tag": "a", "href": "/", "id": "home"}`, nil, ` href="/" id="home"`},
		{"reserved keys skipped", `{"tag": "a", "children": [], "raw": "x", "@each": [], "title": "t"}`, nil, ` title="t"`},
		{"ignored key", `{"a": "Home", "href": "/"}`, []string{"a"}, ` href="/"`},
		{"list joined", `{"class": ["btn", "btn-primary", 2]}`, nil, ` class="btn btn-primary 2"`},
		{"number keeps spelling", `{"width": 1.50}`, nil, ` width="1.50"`},
		{"bool", `{"hidden": true}`, nil, ` hidden="true"`},
		{"null is empty", `{"disabled": null}`, nil, ` disabled=""`},
		{"quotes are not escaped", `{"title": "say \"hi\""}`, nil, ` title="say "hi""`},
		{"no attributes", `{"tag": "p"}`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SerializeAttributes(mustParse(t, tt.src), tt.ignored...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SerializeAttributes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeAttributesInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
	}{
		{"object value", `{"tag": "a", "data": {"x": 1}}`, "data"},
		{"nested list", `{"tag": "a", "class": ["a", ["b"]]}`, "class"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SerializeAttributes(mustParse(t, tt.src))
			requireKind(t, err, InvalidAttributeValue)
			list := AsList(err)
			if len(list) != 1 || list[0].Path != tt.path {
				t.Errorf("errors = %v, want one error at %q", list, tt.path)
			}
		})
	}
}

func TestSerializeAttributesEscaped(t *testing.T) {
	got, err := serializeAttributes(mustParse(t, `{"title": "a \"b\" <c> & 'd'"}`), true, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := ` title="a &quot;b&quot; &lt;c&gt; &amp; &#39;d&#39;"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFlattenStyle(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		ignored []string
		want    string
	}{
		{"single rule", `{"tag": "style", "body": {"color": "red"}}`, nil, "body {color: red;}"},
		{"nested", `{"body": {"color": "red", "a": {"color": "blue"}}}`, nil, "body {color: red;a {color: blue;}}"},
		{"several selectors", `{"h1": {"margin": 0}, ".x": {"padding": "1px 2px"}}`, nil, "h1 {margin: 0;}.x {padding: 1px 2px;}"},
		{"top-level declaration", `{"color": "red"}`, nil, "color: red;"},
		{"list value", `{"p": {"font-family": ["Arial", "sans-serif"]}}`, nil, "p {font-family: Arial sans-serif;}"},
		{"ignored key", `{"style": "x", "p": {"margin": 0}}`, []string{"style"}, "p {margin: 0;}"},
		{"empty", `{}`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlattenStyle(mustParse(t, tt.src), tt.ignored...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FlattenStyle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlattenStyleInvalid(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		paths []string
	}{
		{"list of objects", `{"body": [{"color": "red"}]}`, []string{"body"}},
		{"nested list of objects", `{"body": {"a": [{"color": "red"}]}}`, []string{"body.a"}},
		{"every bad value", `{"p": {"x": [[1]]}, "q": [{}]}`, []string{"p.x", "q"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FlattenStyle(mustParse(t, tt.src))
			requireKind(t, err, InvalidAttributeValue)
			if got != "" {
				t.Errorf("partial output %q", got)
			}
			list := AsList(err)
			if len(list) != len(tt.paths) {
				t.Fatalf("got %d errors, want %d: %v", len(list), len(tt.paths), list)
			}
			for i, e := range list {
				if e.Path != tt.paths[i] {
					t.Errorf("error %d path = %q, want %q", i, e.Path, tt.paths[i])
				}
			}
		})
	}
}

func TestIsVoidElement(t *testing.T) {
	for _, tag := range []string{"br", "img", "input", "meta", "link", "hr"} {
		if !IsVoidElement(tag) {
			t.Errorf("IsVoidElement(%q) = false", tag)
		}
	}
	for _, tag := range []string{"div", "p", "span", "style", "script", ""} {
		if IsVoidElement(tag) {
			t.Errorf("IsVoidElement(%q) = true", tag)
		}
	}
}
