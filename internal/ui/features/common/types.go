// Package common provides shared types and utilities for UI features.
package common

// NavItem is one sidebar link.
type NavItem struct {
	Label string
	Href  string
}

// Nav lists the sidebar links in display order.
var Nav = []NavItem{
	{Label: "Settings", Href: "/settings"},
	{Label: "RAG", Href: "/rag"},
}

// SidebarData holds data needed for the sidebar/shell rendering.
type SidebarData struct {
	CurrentPath string
}

// AlertKind selects an alert style.
type AlertKind string

// Alert kinds.
const (
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
	AlertInfo    AlertKind = "info"
)

// Alert is a status message shown above a form.
type Alert struct {
	Kind    AlertKind
	Message string
	Detail  string
}

// Success returns a success alert.
func Success(msg string) Alert { return Alert{Kind: AlertSuccess, Message: msg} }

// Error returns an error alert carrying err's text.
func Error(msg string, err error) Alert {
	a := Alert{Kind: AlertError, Message: msg}
	if err != nil {
		a.Detail = err.Error()
	}
	return a
}
