package render

import (
	"strconv"
	"strings"

	"github.com/vango-dev/jsonpage/pkg/document"
)

// NodeKind is the classification of a document node.
type NodeKind uint8

const (
	// KindElement is a bare string naming an element: "br".
	KindElement NodeKind = iota
	// KindTag is an object with an explicit tag key.
	KindTag
	// KindShorthand is an object whose first non-reserved key is the tag.
	KindShorthand
	// KindStyle is a tag or shorthand node whose tag is "style".
	KindStyle
	// KindEach is an @each iteration node.
	KindEach
	// KindComponent instantiates a registered component.
	KindComponent
	// KindPlaceholder is a bare "${name}" string, kept as text.
	KindPlaceholder
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindTag:
		return "tag"
	case KindShorthand:
		return "shorthand"
	case KindStyle:
		return "style"
	case KindEach:
		return "each"
	case KindComponent:
		return "component"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "NodeKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Form records how the tag name was written.
type Form uint8

const (
	FormString    Form = iota // "div"
	FormExplicit              // {"tag": "div"}
	FormShorthand             // {"div": ...}
)

// Node is a classified document node. It is computed once per node and
// passed down so the shape of the value is probed only here.
type Node struct {
	Kind  NodeKind
	Form  Form
	Tag   string
	Value *document.Value

	// Primary is the shorthand key that doubles as the tag name.
	Primary string

	// Component is set for KindComponent.
	Component *Component
}

// Classify determines the kind of node. It is a pure function of the node
// and the registry as it stands; reg may be nil.
func Classify(node *document.Value, reg *Registry) (Node, error) {
	if node == nil || (node.Kind != document.KindObject && node.Kind != document.KindString) {
		kind := "null"
		if node != nil {
			kind = node.Kind.String()
		}
		return Node{}, newError(InvalidNodeType, "", node, "a node must be an object or a string, got %s", kind)
	}

	if node.IsString() {
		name := node.Str()
		if c, ok := reg.Lookup(name); ok {
			return Node{Kind: KindComponent, Form: FormString, Tag: name, Value: node, Component: c}, nil
		}
		if IsPlaceholder(name) {
			return Node{Kind: KindPlaceholder, Form: FormString, Tag: name, Value: node}, nil
		}
		if name == "" {
			return Node{}, newError(InvalidNodeType, "", node, "empty tag name")
		}
		return Node{Kind: KindElement, Form: FormString, Tag: name, Value: node}, nil
	}

	n := Node{Value: node}
	if tag, ok := node.Get(KeyTag); ok {
		if !tag.IsString() || tag.Str() == "" {
			return Node{}, newError(InvalidNodeType, "", node, "tag must be a non-empty string")
		}
		n.Kind, n.Form, n.Tag = KindTag, FormExplicit, tag.Str()
	} else if node.Has(KeyEach) {
		n.Kind, n.Form, n.Tag, n.Primary = KindShorthand, FormShorthand, KeyEach, KeyEach
	} else {
		for _, m := range node.Members() {
			if !IsReserved(m.Key) {
				n.Primary = m.Key
				break
			}
		}
		if n.Primary == "" {
			return Node{}, newError(InvalidNodeType, "", node, "cannot resolve a tag name: object has no tag key and no non-reserved key")
		}
		n.Kind, n.Form, n.Tag = KindShorthand, FormShorthand, n.Primary
	}

	switch {
	case n.Tag == "style":
		n.Kind = KindStyle
	case n.Tag == KeyEach:
		n.Kind = KindEach
	default:
		if c, ok := reg.Lookup(n.Tag); ok {
			n.Kind, n.Component = KindComponent, c
		}
	}
	return n, nil
}

// IsPlaceholder reports whether s is a single ${name} token.
func IsPlaceholder(s string) bool {
	return len(s) > 3 && strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") &&
		!strings.ContainsAny(s[2:len(s)-1], "${} ")
}

// Content returns the value holding the node's children: children (or raw)
// for explicit tags, the primary value for shorthand tags. Shorthand nodes
// with a null primary value fall back to children and raw.
func (n Node) Content() (*document.Value, bool) {
	if n.Form == FormShorthand {
		if v, _ := n.Value.Get(n.Primary); !v.IsNull() {
			return v, true
		}
	}
	if n.Form == FormString {
		return nil, false
	}
	if v, ok := n.Value.Get(KeyChildren); ok && !v.IsNull() {
		return v, true
	}
	if v, ok := n.Value.Get(KeyRaw); ok && !v.IsNull() {
		return v, true
	}
	return nil, false
}

// contentKey names the key Content reads from, for error paths.
func (n Node) contentKey() string {
	if n.Form == FormShorthand {
		if v, _ := n.Value.Get(n.Primary); !v.IsNull() {
			return n.Primary
		}
	}
	if v, ok := n.Value.Get(KeyChildren); ok && !v.IsNull() {
		return KeyChildren
	}
	return KeyRaw
}

// ignoredKeys returns the keys that are not attributes besides the reserved set.
func (n Node) ignoredKeys() []string {
	if n.Form == FormShorthand {
		return []string{n.Primary}
	}
	return nil
}

func childPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func keyPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
