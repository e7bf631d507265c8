// Package templates provides project scaffolding templates.
//
// # Available Templates
//
//   - minimal: jsonpage.json and a single page
//   - site: several pages sharing imported layout and card components
//
// # Usage
//
//	tmpl, err := templates.Get("site")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tmpl.Create(projectDir, config); err != nil {
//	    log.Fatal(err)
//	}
//
// # Template Variables
//
// Files are text/template sources:
//
//	{{.ProjectName}}     - Name of the project
//	{{.Description}}     - Project description
//	{{.Output}}          - Build output directory
//	{{.Minify}}          - Whether output is minified
//	{{json .X}}          - X quoted as a JSON string
package templates
