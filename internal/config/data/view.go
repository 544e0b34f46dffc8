package data

// DefaultView is the default resource view when starting the app
const DefaultView = "instances"

// View represents the active view state
type View struct {
	Active string `yaml:"active"`
}

// NewView creates a View with default settings
func NewView() *View {
	return &View{
		Active: DefaultView,
	}
}

// Validate ensures the View has valid settings
func (v *View) Validate() {
	if v.Active == "" {
		v.Active = DefaultView
	}
}

// SavedQuery remembers how a resource was last browsed.
type SavedQuery struct {
	Filter   string `yaml:"filter,omitempty"`
	SortBy   string `yaml:"sortBy,omitempty"`
	SortDir  string `yaml:"sortDir,omitempty"`
	Archived bool   `yaml:"archived,omitempty"`
}

// IsZero returns true when nothing was recorded.
func (q SavedQuery) IsZero() bool {
	return q == SavedQuery{}
}
