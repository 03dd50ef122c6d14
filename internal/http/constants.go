package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageIndex    = "index"
	PagePost     = "post"
	PageCreate   = "create"
	PageUpdate   = "update"
	PageLogin    = "login"
	PageRegister = "register"
)

// Cookie and form names shared by handlers, middleware and templates.
const (
	SessionCookieName = "session_id"
	RedirectParam     = "redirect_uri"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageIndex:    "index-content",
	PagePost:     "post-content",
	PageCreate:   "create-content",
	PageUpdate:   "update-content",
	PageLogin:    "login-content",
	PageRegister: "register-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to index-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "index-content"
}
