package render

import (
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
)

// SerializeAttributes renders every non-reserved key of node, minus ignored,
// as ` key="value"` in declared order. Lists of scalars are space-joined.
// Values are written verbatim: quotes are not escaped.
func SerializeAttributes(node *document.Value, ignored ...string) (string, error) {
	return serializeAttributes(node, false, ignored)
}

func serializeAttributes(node *document.Value, escape bool, ignored []string) (string, error) {
	var b strings.Builder
	var errs ErrorList
	for _, m := range node.Members() {
		if IsReserved(m.Key) || contains(ignored, m.Key) {
			continue
		}
		value, err := attrValue(m.Value)
		if err != nil {
			errs = append(errs, newError(InvalidAttributeValue, m.Key, m.Value, "attribute %q: %s", m.Key, err.Error()))
			continue
		}
		if escape {
			value = escapeAttr(value)
		}
		b.WriteByte(' ')
		b.WriteString(m.Key)
		b.WriteString(`="`)
		b.WriteString(value)
		b.WriteByte('"')
	}
	if len(errs) > 0 {
		return "", errs
	}
	return b.String(), nil
}

// attrValue converts an attribute or prop value to its string form.
func attrValue(v *document.Value) (string, error) {
	switch {
	case v.IsScalar():
		return v.Text(), nil
	case v.IsArray():
		parts := make([]string, 0, v.Len())
		for _, item := range v.Items() {
			if !item.IsScalar() {
				return "", errString("lists may only hold scalar values, found " + item.Kind.String())
			}
			parts = append(parts, item.Text())
		}
		return strings.Join(parts, " "), nil
	default:
		return "", errString("value must be a scalar or a list of scalars, got " + v.Kind.String())
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
