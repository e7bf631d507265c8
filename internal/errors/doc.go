// Package errors provides coded, actionable error messages for jsonpage.
//
// Every render error kind maps to a code (J001 to J007) with a detail
// paragraph, a hint and a documentation link. Document, config, publish and
// CLI failures have their own codes.
//
// # Usage
//
//	for _, e := range result.Errors {
//	    pe := errors.FromRender(e, "pages/index.json", src)
//	    fmt.Print(pe.Format())
//	}
//	// ERROR J002: Children need to be an array
//	//
//	//   pages/index.json:3:11 at page[1].ul
//	//
//	//        1 │ {
//	//        2 │   "page": [
//	//   →    3 │     {"ul": "oops"}
//	//          │           ^
//	//
//	//   Hint: Use a list: "children": [{"p": "text"}].
//	//
//	//   Learn more: https://jsonpage.dev/docs/errors/J002
package errors
