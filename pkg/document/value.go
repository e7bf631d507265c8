package document

import (
	"fmt"
	"strings"
)

// Kind identifies the JSON type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Pos is a 1-based source position. The zero Pos means unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

// String returns "line:column".
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Member is one key/value pair of an object, in declared order.
type Member struct {
	Key   string
	Value *Value
}

// Value is an immutable JSON value that remembers key order and source position.
type Value struct {
	Kind Kind
	Pos  Pos

	// text holds the string contents, the raw number spelling, or "true"/"false".
	text    string
	members []Member
	items   []*Value
}

// Null returns a null value.
func Null() *Value { return &Value{Kind: KindNull} }

// String returns a string value.
func String(s string) *Value { return &Value{Kind: KindString, text: s} }

// Number returns a number value with the given source spelling.
func Number(raw string) *Value { return &Value{Kind: KindNumber, text: raw} }

// Bool returns a boolean value.
func Bool(b bool) *Value {
	if b {
		return &Value{Kind: KindBool, text: "true"}
	}
	return &Value{Kind: KindBool, text: "false"}
}

// Object returns an object value holding members in the given order.
func Object(members ...Member) *Value {
	return &Value{Kind: KindObject, members: members}
}

// Array returns an array value.
func Array(items ...*Value) *Value {
	return &Value{Kind: KindArray, items: items}
}

// M is shorthand for building a Member.
func M(key string, v *Value) Member {
	return Member{Key: key, Value: v}
}

// IsNull reports whether v is nil or JSON null.
func (v *Value) IsNull() bool { return v == nil || v.Kind == KindNull }

// IsObject reports whether v is an object.
func (v *Value) IsObject() bool { return v != nil && v.Kind == KindObject }

// IsArray reports whether v is an array.
func (v *Value) IsArray() bool { return v != nil && v.Kind == KindArray }

// IsString reports whether v is a string.
func (v *Value) IsString() bool { return v != nil && v.Kind == KindString }

// IsScalar reports whether v is a string, number, boolean or null.
func (v *Value) IsScalar() bool {
	return v == nil || (v.Kind != KindObject && v.Kind != KindArray)
}

// Str returns the contents of a string value, or "" for other kinds.
func (v *Value) Str() string {
	if v == nil || v.Kind != KindString {
		return ""
	}
	return v.text
}

// Text returns the string form used when a scalar is written into markup:
// strings as-is, numbers in their source spelling, booleans as true/false and
// null as the empty string. Objects and arrays return "".
func (v *Value) Text() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case KindString, KindNumber, KindBool:
		return v.text
	default:
		return ""
	}
}

// Members returns the object members in declared order.
func (v *Value) Members() []Member {
	if v == nil {
		return nil
	}
	return v.members
}

// Items returns the array elements.
func (v *Value) Items() []*Value {
	if v == nil {
		return nil
	}
	return v.items
}

// Len returns the number of members or items.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	if v.Kind == KindObject {
		return len(v.members)
	}
	return len(v.items)
}

// Get returns the member value with the given key.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil {
		return nil, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// set stores val under key. A repeated key keeps its first position and
// takes the last value.
func (v *Value) set(key string, val *Value) {
	for i := range v.members {
		if v.members[i].Key == key {
			v.members[i].Value = val
			return
		}
	}
	v.members = append(v.members, Member{Key: key, Value: val})
}

// Has reports whether the object has a member with the given key.
func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns the object keys in declared order.
func (v *Value) Keys() []string {
	keys := make([]string, 0, len(v.Members()))
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// WithPos returns v after setting its position. It is meant for builders and tests.
func (v *Value) WithPos(line, column int) *Value {
	v.Pos = Pos{Line: line, Column: column}
	return v
}

// String renders v back to compact JSON. Key order is preserved.
func (v *Value) String() string {
	var b strings.Builder
	v.writeJSON(&b)
	return b.String()
}

func (v *Value) writeJSON(b *strings.Builder) {
	if v == nil {
		b.WriteString("null")
		return
	}
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool, KindNumber:
		b.WriteString(v.text)
	case KindString:
		fmt.Fprintf(b, "%q", v.text)
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			item.writeJSON(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%q:", m.Key)
			m.Value.writeJSON(b)
		}
		b.WriteByte('}')
	}
}
