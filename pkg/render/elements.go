package render

// voidElements are elements that cannot have children and have no closing tag.
// Without content they render self-closing: <br />.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Reserved keys are never rendered as attributes.
const (
	KeyTag      = "tag"
	KeyChildren = "children"
	KeyRaw      = "raw"
	KeyEach     = "@each"

	// KeyItems holds the iteration values of an @each node.
	KeyItems = "items"
)

var reservedKeys = map[string]bool{
	KeyTag:      true,
	KeyChildren: true,
	KeyRaw:      true,
	KeyEach:     true,
}

// IsReserved reports whether key is a reserved keyword.
func IsReserved(key string) bool {
	return reservedKeys[key]
}

// Placeholder tokens substituted into component templates and @each bodies.
const (
	SlotToken = "${children}"
	ItemToken = "${item}"
)

// PropToken returns the placeholder for a component prop: ${name}.
func PropToken(name string) string {
	return "${" + name + "}"
}
