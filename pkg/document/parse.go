package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a document contains no value.
var ErrEmpty = errors.New("document is empty")

// SyntaxError reports a document that could not be parsed.
type SyntaxError struct {
	Format string // "json" or "yaml"
	Pos    Pos
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("invalid %s at %s: %s", e.Format, e.Pos, e.Msg)
	}
	return fmt.Sprintf("invalid %s: %s", e.Format, e.Msg)
}

// Parse parses a JSON document.
func Parse(data []byte) (*Value, error) {
	src := string(data)
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmpty
	}
	lines := newLineIndex(src)
	if !gjson.Valid(src) {
		return nil, jsonSyntaxError(data, lines)
	}

	// gjson reports offsets relative to the first non-blank byte.
	base := len(src) - len(strings.TrimLeft(src, " \t\r\n"))
	root := gjson.Parse(src)
	return fromResult(root, base, lines), nil
}

func fromResult(r gjson.Result, base int, lines lineIndex) *Value {
	var v *Value
	switch r.Type {
	case gjson.Null:
		v = Null()
	case gjson.False:
		v = Bool(false)
	case gjson.True:
		v = Bool(true)
	case gjson.Number:
		v = Number(r.Raw)
	case gjson.String:
		v = String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			v = &Value{Kind: KindArray}
			r.ForEach(func(_, item gjson.Result) bool {
				v.items = append(v.items, fromResult(item, base, lines))
				return true
			})
		} else {
			v = &Value{Kind: KindObject}
			r.ForEach(func(key, val gjson.Result) bool {
				v.set(key.Str, fromResult(val, base, lines))
				return true
			})
		}
	default:
		v = Null()
	}
	v.Pos = lines.pos(base + r.Index)
	return v
}

// jsonSyntaxError locates the first syntax error. gjson only validates, so the
// offset comes from encoding/json.
func jsonSyntaxError(data []byte, lines lineIndex) error {
	var discard any
	err := json.Unmarshal(data, &discard)
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Format: "json", Pos: lines.pos(int(se.Offset) - 1), Msg: se.Error()}
	}
	if err != nil {
		return &SyntaxError{Format: "json", Msg: err.Error()}
	}
	return &SyntaxError{Format: "json", Msg: "malformed document"}
}

// ParseYAML parses a YAML document. Mappings keep their key order.
func ParseYAML(data []byte) (*Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &SyntaxError{Format: "yaml", Msg: err.Error()}
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return nil, ErrEmpty
	}
	return fromYAML(&root)
}

func fromYAML(n *yaml.Node) (*Value, error) {
	pos := Pos{Line: n.Line, Column: n.Column}
	switch n.Kind {
	case yaml.DocumentNode:
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.SequenceNode:
		v := &Value{Kind: KindArray, Pos: pos}
		for _, c := range n.Content {
			item, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			v.items = append(v.items, item)
		}
		return v, nil
	case yaml.MappingNode:
		v := &Value{Kind: KindObject, Pos: pos}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, &SyntaxError{Format: "yaml", Pos: Pos{Line: k.Line, Column: k.Column}, Msg: "mapping keys must be scalars"}
			}
			item, err := fromYAML(val)
			if err != nil {
				return nil, err
			}
			v.set(k.Value, item)
		}
		return v, nil
	case yaml.ScalarNode:
		var v *Value
		switch n.ShortTag() {
		case "!!null":
			v = Null()
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, &SyntaxError{Format: "yaml", Pos: pos, Msg: err.Error()}
			}
			v = Bool(b)
		case "!!int", "!!float":
			v = Number(n.Value)
		default:
			v = String(n.Value)
		}
		v.Pos = pos
		return v, nil
	default:
		return nil, &SyntaxError{Format: "yaml", Pos: pos, Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
	}
}

// lineIndex maps byte offsets to line/column positions.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (l lineIndex) pos(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	line := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Pos{Line: line + 1, Column: offset - l[line] + 1}
}
