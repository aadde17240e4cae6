package models

// Category is a human judgment of response correctness on the 0-3 scale.
// Absence of a category (a record the rater has not touched) is distinct
// from every value, including Hallucination's 0 points.
type Category string

const (
	CategoryDirect       Category = "direct"
	CategoryInferable    Category = "inferable"
	CategoryMissing      Category = "missing_or_incorrect"
	CategoryHallucinated Category = "hallucination"
)

// Categories lists all categories in descending point order.
var Categories = []Category{
	CategoryDirect,
	CategoryInferable,
	CategoryMissing,
	CategoryHallucinated,
}

var categoryPoints = map[Category]int{
	CategoryDirect:       3,
	CategoryInferable:    2,
	CategoryMissing:      1,
	CategoryHallucinated: 0,
}

// Points returns the fixed point value for the category. Unknown categories
// score 0; callers should check Valid first when the source is untrusted.
func (c Category) Points() int {
	return categoryPoints[c]
}

// Valid reports whether c is one of the four defined categories.
func (c Category) Valid() bool {
	_, ok := categoryPoints[c]
	return ok
}

// CategoryFromPoints inverts the point mapping, used when reconstructing a
// scoring store from exported numeric evaluation fields.
func CategoryFromPoints(points int) (Category, bool) {
	for c, p := range categoryPoints {
		if p == points {
			return c, true
		}
	}
	return "", false
}
