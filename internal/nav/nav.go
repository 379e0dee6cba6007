package nav

import (
	"net/http"
	"strings"
)

const (
	Brand      = "PodNPlay"
	SignInURL  = "/sign-in"
	SignOutURL = "/sign-out"
)

// Link is a static sidebar route.
type Link struct {
	Route  string
	Label  string
	ImgURL string
	Active bool
}

// Action is the single session-dependent button.
type Action struct {
	Label  string
	Href   string
	Method string
}

// Sidebar is the navigation shell.
type Sidebar struct {
	Brand    string
	HomeURL  string
	Links    []Link
	SignedIn bool
	Action   Action
}

// Links are the static routes shown on every page.
var Links = []Link{
	{Route: "/", Label: "Home", ImgURL: "/static/icons/home.svg"},
	{Route: "/discover", Label: "Discover", ImgURL: "/static/icons/discover.svg"},
	{Route: "/create", Label: "Create Podcast", ImgURL: "/static/icons/microphone.svg"},
}

// Build returns the sidebar for the current path and session.
func Build(path string, signedIn bool) Sidebar {
	links := make([]Link, len(Links))
	for i, l := range Links {
		l.Active = isActive(path, l.Route)
		links[i] = l
	}

	s := Sidebar{Brand: Brand, HomeURL: "/", Links: links, SignedIn: signedIn}
	if signedIn {
		s.Action = Action{Label: "Log Out", Href: SignOutURL, Method: http.MethodPost}
	} else {
		s.Action = Action{Label: "Sign in", Href: SignInURL, Method: http.MethodGet}
	}
	return s
}

func isActive(path, route string) bool {
	return path == route || strings.HasPrefix(path, route+"/")
}
