package routes

import "net/http"

// Register mounts route groups onto the mux under the given base path.
// Patterns are composed as basePath + group prefix + route pattern using
// the method-qualified ServeMux syntax.
func Register(mux *http.ServeMux, basePath string, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, basePath, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+fullPrefix+route.Pattern, route.Handler)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}
