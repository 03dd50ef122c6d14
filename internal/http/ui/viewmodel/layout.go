package viewmodel

// User represents the logged-in account exposed to templates.
type User struct {
	ID       int64
	Username string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
}

