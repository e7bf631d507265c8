// Package render converts jsonpage documents into HTML.
//
// A document is a JSON value describing markup. Each node is one of:
//
//   - a string naming an element ("br") or a registered component
//   - an explicit tag object: {"tag": "a", "href": "/", "children": [...]}
//   - a shorthand object whose first non-reserved key is the tag:
//     {"a": "Home", "href": "/"}
//   - a style node, flattened into CSS: {"style": {"body": {"color": "red"}}}
//   - an @each node replayed once per item: {"@each": [{"li": "${item}"}], "items": ["a", "b"]}
//   - a component instantiation: {"Card": [...], "title": "Hello"}
//
// The reserved keys tag, children, raw and @each are never attributes.
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	result, err := renderer.Render(ctx, doc)
//	if err != nil {
//	    // loader I/O failure
//	}
//	if !result.OK() {
//	    for _, e := range result.Errors { ... }
//	}
//	fmt.Println(result.Output)
//
// # Components
//
// Documents with a page or component body may declare components first:
//
//	{
//	  "components": {
//	    "Card": {
//	      "props": {"title": "Untitled"},
//	      "content": [{"div": [{"h2": "${title}"}, "${children}"], "class": "card"}]
//	    }
//	  },
//	  "import": {"Footer": "parts/footer.json"},
//	  "page": [{"Card": [{"p": "Body"}], "title": "Hello"}, "Footer"]
//	}
//
// A bare string that is a placeholder ("${children}", "${item}") passes
// through as text so slots can sit between sibling elements.
//
// Each component body is rendered once at registration. Instantiation
// substitutes ${prop} placeholders and fills the first ${children} slot.
// A body may use only components registered before it, so definitions
// cannot be cyclic.
//
// Every Render call starts from an empty registry; nothing is shared
// between calls.
//
// # Security
//
// Text and attribute values are not escaped unless RendererConfig.Escape
// is set. Only render documents from trusted sources in the default mode.
package render
