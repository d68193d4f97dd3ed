// Package routes provides HTTP route grouping and mux registration.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler function.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}
