package retrieval

import "strings"

// Category is a document category the search index is tagged with.
type Category string

const (
	// CategoryAll is the wildcard: search without a category filter.
	CategoryAll Category = "ALL"

	// CategorySafety covers construction site and worker safety documents.
	CategorySafety Category = "Safety"
	// CategoryBuildingCode covers building code documents.
	CategoryBuildingCode Category = "Building Code"
	// CategorySustainability covers sustainability and energy efficiency documents.
	CategorySustainability Category = "Sustainability"
	// CategoryPlumbing covers plumbing documents.
	CategoryPlumbing Category = "Plumbing"
	// CategoryFire covers fire protection documents.
	CategoryFire Category = "Fire"
	// CategoryElectrical covers electrical documents.
	CategoryElectrical Category = "Electrical"
)

// Categories lists the filterable categories, in the order the classifier
// prompt enumerates them. CategoryAll is not a member.
func Categories() []Category {
	return []Category{
		CategorySafety,
		CategoryBuildingCode,
		CategorySustainability,
		CategoryPlumbing,
		CategoryFire,
		CategoryElectrical,
	}
}

// IsAll reports whether the category is the unfiltered wildcard.
func (c Category) IsAll() bool { return c == CategoryAll }

// ParseCategory maps raw classifier output to a Category. The output is
// trimmed of quote characters and whitespace first; anything that is not an
// exact match for one of the six categories resolves to CategoryAll.
func ParseCategory(raw string) Category {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
	for _, c := range Categories() {
		if cleaned == string(c) {
			return c
		}
	}
	return CategoryAll
}
