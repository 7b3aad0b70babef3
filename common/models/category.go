package models

import "strings"

// Category is the declared media family of an upload. The set is closed.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryPDF   Category = "pdf"
)

// Categories lists every supported category in a stable order
var Categories = []Category{CategoryImage, CategoryVideo, CategoryPDF}

// ParseCategory normalizes s and reports whether it names a supported category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

// Valid reports whether c is one of the supported categories
func (c Category) Valid() bool {
	switch c {
	case CategoryImage, CategoryVideo, CategoryPDF:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
