package ui

// MenuHint describes a keyboard shortcut shown in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page of the dashboard.
type Component interface {
	Name() string
	Hints() []MenuHint
}
