package render

import (
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
)

// FlattenStyle turns a nested style object into CSS text. Object values
// become selector blocks, everything else a declaration:
//
//	{"body": {"color": "red", "a": {"color": "blue"}}}
//	body {color: red;a {color: blue;}}
//
// The tag key and any ignored keys are skipped. Declaration values must be
// scalars or lists of scalars; anything else is an InvalidAttributeValue.
func FlattenStyle(node *document.Value, ignored ...string) (string, error) {
	var b strings.Builder
	if errs := flattenStyle(&b, node, "", ignored); len(errs) > 0 {
		return "", errs
	}
	return b.String(), nil
}

func flattenStyle(b *strings.Builder, node *document.Value, path string, ignored []string) ErrorList {
	var errs ErrorList
	for _, m := range node.Members() {
		if m.Key == KeyTag || contains(ignored, m.Key) {
			continue
		}
		if m.Value.IsObject() {
			b.WriteString(m.Key)
			b.WriteString(" {")
			errs = append(errs, flattenStyle(b, m.Value, keyPath(path, m.Key), nil)...)
			b.WriteString("}")
			continue
		}
		value, err := attrValue(m.Value)
		if err != nil {
			errs = append(errs, newError(InvalidAttributeValue, keyPath(path, m.Key), m.Value,
				"style %q: %s", m.Key, err.Error()))
			continue
		}
		b.WriteString(m.Key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(";")
	}
	return errs
}
