// Package router maps site paths onto sections and the feed each one shows.
package router

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/example/blazehunter/internal/config"
)

// Section is one of the site's top-level views.
type Section string

const (
	SectionHome    Section = "home"
	SectionNation  Section = "nation"
	SectionNews    Section = "news"
	SectionContact Section = "contact"
)

// State is the router's current position.
type State struct {
	Path    string  `json:"path"`
	Section Section `json:"section"`
	Key     string  `json:"key,omitempty"`
}

// Home is the initial state.
var Home = State{Path: "/", Section: SectionHome}

// Effect describes what a transition asks the page to do.
type Effect struct {
	Section Section `json:"section"`
	// FeedKey is the collection to render; empty when the section has no feed.
	FeedKey string `json:"feedKey,omitempty"`
	IsNews  bool   `json:"isNews"`
	Heading string `json:"heading"`
	// MobileHeading is shown on narrow screens when it differs from Heading.
	MobileHeading string `json:"mobileHeading,omitempty"`
	ActiveNav     string `json:"activeNav"`
	ActiveNation  string `json:"activeNation,omitempty"`
	Refetch       bool   `json:"refetch"`
	// PushHistory is set when the address bar must be updated.
	PushHistory bool `json:"pushHistory"`
}

// Router is a finite-state router over the site's virtual paths.
type Router struct {
	site    *config.Site
	current State
}

// New returns a router positioned at Home.
func New(site *config.Site) *Router {
	return &Router{site: site, current: Home}
}

// Current returns the router's state.
func (r *Router) Current() State {
	return r.current
}

// Navigate moves to path and returns the new state and its effect.
func (r *Router) Navigate(path, lang string) (State, Effect) {
	next, effect := Transition(r.site, r.current, path, lang)
	r.current = next
	return next, effect
}

// Transition is the router's pure transition function. Unknown paths fall
// back to Home.
func Transition(site *config.Site, from State, path, lang string) (State, Effect) {
	path = Normalize(path)
	t := site.Translator(lang)
	upper := cases.Upper(languageTag(t.Lang()))

	var next State
	effect := Effect{ActiveNav: activeNav(path)}

	switch {
	case path == "/":
		next = Home
	case strings.HasPrefix(path, "/nation/"):
		key := strings.TrimPrefix(path, "/nation/")
		next = State{Path: path, Section: SectionNation, Key: key}
		effect.FeedKey = key
		effect.Refetch = true
		effect.ActiveNation = path
		effect.Heading = t.Translate("select_country") + ": " + upper.String(key)
	case path == "/nation":
		next = State{Path: path, Section: SectionNation, Key: config.KeyDefault}
		effect.FeedKey = config.KeyDefault
		effect.Refetch = true
		effect.MobileHeading = t.Translate("select_country") + " - " + t.Translate("select_prompt")
	case path == "/news":
		next = State{Path: path, Section: SectionNews, Key: config.KeyNews}
		effect.FeedKey = config.KeyNews
		effect.IsNews = true
		effect.Refetch = true
		effect.Heading = t.Translate("news_heading")
	case path == "/contact":
		next = State{Path: path, Section: SectionContact}
		effect.Heading = t.Translate("contact_heading")
	default:
		next = Home
		effect.ActiveNav = "/"
	}

	effect.Section = next.Section
	effect.PushHistory = next.Path != from.Path
	return next, effect
}

// Normalize trims whitespace, query strings and trailing slashes and makes
// the path absolute.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func activeNav(path string) string {
	switch {
	case strings.HasPrefix(path, "/nation"):
		return "/nation"
	case strings.HasPrefix(path, "/news"):
		return "/news"
	case strings.HasPrefix(path, "/contact"):
		return "/contact"
	default:
		return "/"
	}
}

func languageTag(lang string) language.Tag {
	switch lang {
	case "vietnam":
		return language.Vietnamese
	default:
		return language.English
	}
}
