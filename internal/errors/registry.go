package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Severity   Severity
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://jsonpage.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Render errors (J001-J019)

	"J001": {
		Category:   CategoryRender,
		Message:    "Invalid document shape",
		Detail:     "A document is either an array of nodes or an object with exactly one of page and component. The components and import sections must be objects.",
		Suggestion: `Wrap the body in {"page": [...]} for a full page or {"component": [...]} for a fragment.`,
		DocURL:     docBase + "J001",
	},
	"J002": {
		Category:   CategoryRender,
		Message:    "Not an array",
		Detail:     "Children, page and component bodies, and @each items must be arrays.",
		Suggestion: `Use a list: "children": [{"p": "text"}].`,
		DocURL:     docBase + "J002",
	},
	"J003": {
		Category:   CategoryRender,
		Message:    "Invalid node type",
		Detail:     "A node must be a string naming an element or component, or an object with a tag key or a non-reserved key naming the tag.",
		Suggestion: `Write text as the content of an element: {"p": "text"}.`,
		DocURL:     docBase + "J003",
	},
	"J004": {
		Category:   CategoryRender,
		Message:    "Duplicate component",
		Detail:     "Every component name may be defined once per document, across both the components and import sections.",
		Suggestion: "Rename one of the components.",
		DocURL:     docBase + "J004",
	},
	"J005": {
		Category:   CategoryRender,
		Severity:   SeverityWarning,
		Message:    "Unknown prop",
		Detail:     "The component does not declare this prop, so the value is ignored.",
		Suggestion: `Declare the prop with a default: "props": {"name": ""}.`,
		DocURL:     docBase + "J005",
	},
	"J006": {
		Category:   CategoryRender,
		Message:    "Invalid import path",
		Detail:     "Import entries map a component name to the path of a document, relative to the importing document.",
		Suggestion: "Check that the file exists and the path is a string.",
		DocURL:     docBase + "J006",
	},
	"J007": {
		Category:   CategoryRender,
		Message:    "Invalid attribute value",
		Detail:     "Attribute and prop values must be strings, numbers, booleans, null, or lists of those.",
		DocURL:     docBase + "J007",
	},
	"J008": {
		Category:   CategoryRender,
		Severity:   SeverityWarning,
		Message:    "Ignored content",
		Detail:     "A shorthand element takes its content from the key naming the tag, so children and raw on the same node are not rendered.",
		Suggestion: `Move the content into one place: {"div": ["text", "br"]}.`,
		DocURL:     docBase + "J008",
	},

	// Document errors (J020-J039)

	"J020": {
		Category: CategoryDocument,
		Message:  "Document syntax error",
		Detail:   "The document is not valid JSON or YAML.",
		DocURL:   docBase + "J020",
	},
	"J021": {
		Category:   CategoryDocument,
		Message:    "Document not found",
		Suggestion: "Check the path. Relative paths resolve against the working directory.",
		DocURL:     docBase + "J021",
	},
	"J022": {
		Category: CategoryDocument,
		Message:  "Unsupported document type",
		Detail:   "Documents must have a .json, .yaml or .yml extension.",
		DocURL:   docBase + "J022",
	},

	// Config errors (J040-J059)

	"J040": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "jsonpage.json could not be parsed or failed validation.",
		DocURL:   docBase + "J040",
	},
	"J041": {
		Category:   CategoryConfig,
		Message:    "No pages configured",
		Detail:     "The build command renders the documents listed under pages in jsonpage.json.",
		Suggestion: `Add "pages": ["pages/*.json"] to jsonpage.json.`,
		DocURL:     docBase + "J041",
	},

	"J042": {
		Category:   CategoryConfig,
		Message:    "Configuration not found",
		Suggestion: "Create jsonpage.json in the project root or pass the document path directly.",
		DocURL:     docBase + "J042",
	},

	// Publish errors (J060-J079)

	"J060": {
		Category: CategoryPublish,
		Message:  "Write failed",
		Detail:   "The rendered output could not be written.",
		DocURL:   docBase + "J060",
	},
	"J061": {
		Category:   CategoryPublish,
		Message:    "Upload failed",
		Detail:     "The rendered output could not be uploaded to S3.",
		Suggestion: "Check the bucket name, region and AWS credentials.",
		DocURL:     docBase + "J061",
	},

	// CLI errors (J080-J099)

	"J080": {
		Category: CategoryCLI,
		Message:  "Port in use",
		Detail:   "The preview server could not bind to the configured port.",
		DocURL:   docBase + "J080",
	},
	"J081": {
		Category: CategoryCLI,
		Message:  "Watch failed",
		Detail:   "The file watcher could not scan the document directory.",
		DocURL:   docBase + "J081",
	},
	"J082": {
		Category:   CategoryCLI,
		Message:    "Directory already exists",
		Suggestion: "Choose a different name or remove the existing directory.",
		DocURL:     docBase + "J082",
	},
	"J083": {
		Category: CategoryCLI,
		Message:  "Template not found",
		DocURL:   docBase + "J083",
	},
	"J084": {
		Category:   CategoryCLI,
		Message:    "Invalid project name",
		Suggestion: "Use letters, digits, dots, hyphens and underscores.",
		DocURL:     docBase + "J084",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
