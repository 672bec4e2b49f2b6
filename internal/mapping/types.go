// Package mapping assigns functionality categories to identifiers whose
// meaning is not already known, by matching the API names, strings and
// fields associated with each identifier.
package mapping

import (
	"blemap/internal/identifier"
)

// Unresolved is the final category of an identifier whose combined
// categories are empty or disagree.
const Unresolved = "N/A"

// Categories are the per-component category lists of one identifier. Every
// list is present in output, possibly empty.
type Categories struct {
	API      []string `json:"api_categories"`
	Strings  []string `json:"string_categories"`
	Fields   []string `json:"field_categories"`
	Combined []string `json:"combined_categories"`
}

func newCategories() Categories {
	return Categories{API: []string{}, Strings: []string{}, Fields: []string{}, Combined: []string{}}
}

func (c Categories) clone() Categories {
	return Categories{
		API:      append([]string{}, c.API...),
		Strings:  append([]string{}, c.Strings...),
		Fields:   append([]string{}, c.Fields...),
		Combined: append([]string{}, c.Combined...),
	}
}

// Final returns the single shared category of Combined, or Unresolved.
func (c Categories) Final() string {
	if len(c.Combined) == 0 {
		return Unresolved
	}
	first := c.Combined[0]
	for _, v := range c.Combined[1:] {
		if v != first {
			return Unresolved
		}
	}
	return first
}

// Assignment is the output record of one identifier in one application.
type Assignment struct {
	Components Categories `json:"component_categories"`
	Final      string     `json:"final_category"`
}

// Resolved reports whether a single category was assigned.
func (a *Assignment) Resolved() bool {
	return a.Final != Unresolved
}

// AppOutput maps identifiers of one application to their assignment.
type AppOutput map[identifier.Identifier]*Assignment

// Output maps application keys to their assignments.
type Output map[string]AppOutput

// Counts summarises an Output.
func (o Output) Counts() (apps, identifiers, resolved int) {
	for _, app := range o {
		apps++
		for _, a := range app {
			identifiers++
			if a.Resolved() {
				resolved++
			}
		}
	}
	return apps, identifiers, resolved
}
