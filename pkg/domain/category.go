package domain

import dErrors "veilfund/pkg/domain-errors"

// Category classifies a campaign. The set is closed; unknown values are
// rejected at parse time.
type Category string

const (
	CategoryDisasterRelief Category = "disaster_relief"
	CategoryMedical        Category = "medical"
	CategoryEducation      Category = "education"
	CategoryEnvironment    Category = "environment"
	CategorySocial         Category = "social"
	CategoryEmergency      Category = "emergency"
	CategoryOther          Category = "other"
)

var validCategories = map[Category]bool{
	CategoryDisasterRelief: true,
	CategoryMedical:        true,
	CategoryEducation:      true,
	CategoryEnvironment:    true,
	CategorySocial:         true,
	CategoryEmergency:      true,
	CategoryOther:          true,
}

// ParseCategory validates and returns a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", dErrors.New(dErrors.CodeBadRequest, "unknown category: "+s)
	}
	return c, nil
}

func (c Category) String() string { return string(c) }
