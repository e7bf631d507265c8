// Package document provides the ordered value model that jsonpage renders from.
//
// Page documents are plain JSON (or YAML) values, but rendering depends on
// details that encoding/json discards: the declared order of object keys
// decides both the tag name of a shorthand node and the order of its
// attributes, and numbers must keep their source spelling. Value keeps both,
// plus the line and column each value came from so that render errors can
// point back into the source file.
//
// # Parsing
//
//	v, err := document.Parse(data)      // JSON
//	v, err := document.ParseYAML(data)  // YAML
//
// # Loading
//
// Documents that import other documents go through a Loader:
//
//	loader := document.NewFileLoader("site")
//	v, err := loader.Load(ctx, "pages/index.json")
package document
