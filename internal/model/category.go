package model

import "strings"

// Spending categories known to the categorizer and the behavior model.
const (
	CategoryGroceries       = "GROCERIES"
	CategoryDining          = "DINING"
	CategoryHousing         = "HOUSING"
	CategoryUtilities       = "UTILITIES"
	CategoryTransportation  = "TRANSPORTATION"
	CategoryHealthcare      = "HEALTHCARE"
	CategoryInsurance       = "INSURANCE"
	CategoryEducation       = "EDUCATION"
	CategoryEntertainment   = "ENTERTAINMENT"
	CategoryShopping        = "SHOPPING"
	CategoryTravel          = "TRAVEL"
	CategorySubscriptions   = "SUBSCRIPTIONS"
	CategoryPersonalCare    = "PERSONAL_CARE"
	CategoryBusinessExpense = "BUSINESS_EXPENSE"
	CategorySavings         = "SAVINGS"
	// CategoryOther is the fallback used when classification fails.
	CategoryOther = "OTHER"
)

// Flexibility describes how compressible spending in a category usually is.
type Flexibility string

const (
	// FlexibilityEssential covers categories that are hard to cut (rent, utilities).
	FlexibilityEssential Flexibility = "essential"
	// FlexibilitySemiFlexible covers categories with some room to adjust.
	FlexibilitySemiFlexible Flexibility = "semi_flexible"
	// FlexibilityDiscretionary covers categories that can be cut freely.
	FlexibilityDiscretionary Flexibility = "discretionary"
)

var categoryFlexibility = map[string]Flexibility{
	CategoryHousing:         FlexibilityEssential,
	CategoryUtilities:       FlexibilityEssential,
	CategoryHealthcare:      FlexibilityEssential,
	CategoryInsurance:       FlexibilityEssential,
	CategoryEducation:       FlexibilityEssential,
	CategoryGroceries:       FlexibilitySemiFlexible,
	CategoryTransportation:  FlexibilitySemiFlexible,
	CategoryPersonalCare:    FlexibilitySemiFlexible,
	CategoryBusinessExpense: FlexibilitySemiFlexible,
	CategorySavings:         FlexibilitySemiFlexible,
	CategoryOther:           FlexibilitySemiFlexible,
	CategoryDining:          FlexibilityDiscretionary,
	CategoryEntertainment:   FlexibilityDiscretionary,
	CategoryShopping:        FlexibilityDiscretionary,
	CategoryTravel:          FlexibilityDiscretionary,
	CategorySubscriptions:   FlexibilityDiscretionary,
}

// AllCategories returns every known category in a stable order.
func AllCategories() []string {
	return []string{
		CategoryGroceries,
		CategoryDining,
		CategoryHousing,
		CategoryUtilities,
		CategoryTransportation,
		CategoryHealthcare,
		CategoryInsurance,
		CategoryEducation,
		CategoryEntertainment,
		CategoryShopping,
		CategoryTravel,
		CategorySubscriptions,
		CategoryPersonalCare,
		CategoryBusinessExpense,
		CategorySavings,
		CategoryOther,
	}
}

// IsKnownCategory reports whether name is one of the known categories.
func IsKnownCategory(name string) bool {
	_, ok := categoryFlexibility[name]
	return ok
}

// NormalizeCategory upper-cases and trims a category name.
func NormalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// CategoryFlexibility returns the flexibility class of a category.
// Unknown categories are treated as semi-flexible.
func CategoryFlexibility(name string) Flexibility {
	if f, ok := categoryFlexibility[name]; ok {
		return f
	}
	return FlexibilitySemiFlexible
}
