// Package notes serves the study-note catalog and the user's favourites.
package notes

import "github.com/conorfennell/studynotes/internal/domain"

// Catalog is the fixed set of notes, grouped into sections.
type Catalog struct {
	sections []domain.NoteSection
	byHref   map[string]domain.NoteItem
}

func NewCatalog(sections []domain.NoteSection) *Catalog {
	c := &Catalog{sections: sections, byHref: make(map[string]domain.NoteItem)}
	for _, s := range sections {
		for _, item := range s.Items {
			c.byHref[item.Href] = item
		}
	}
	return c
}

func (c *Catalog) Sections() []domain.NoteSection {
	return c.sections
}

// Count returns the number of distinct notes.
func (c *Catalog) Count() int {
	return len(c.byHref)
}

// Find looks a note up by its href.
func (c *Catalog) Find(href string) (domain.NoteItem, bool) {
	item, ok := c.byHref[href]
	return item, ok
}
