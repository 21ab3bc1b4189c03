package model

import "testing"

func TestNormalizeCategory(t *testing.T) {
	tests := map[string]string{
		"dining":        CategoryDining,
		"  Groceries ":  CategoryGroceries,
		"PERSONAL_CARE": CategoryPersonalCare,
		"":              "",
	}
	for in, want := range tests {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllCategoriesAreKnown(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range AllCategories() {
		if !IsKnownCategory(c) {
			t.Errorf("%s listed but not known", c)
		}
		if seen[c] {
			t.Errorf("%s listed twice", c)
		}
		seen[c] = true
	}
	if IsKnownCategory("dining") {
		t.Error("IsKnownCategory should not normalize")
	}
}

func TestCategoryFlexibility(t *testing.T) {
	tests := []struct {
		category string
		want     Flexibility
	}{
		{CategoryHousing, FlexibilityEssential},
		{CategoryGroceries, FlexibilitySemiFlexible},
		{CategoryDining, FlexibilityDiscretionary},
		{"PETS", FlexibilitySemiFlexible},
	}
	for _, tt := range tests {
		if got := CategoryFlexibility(tt.category); got != tt.want {
			t.Errorf("CategoryFlexibility(%s) = %s, want %s", tt.category, got, tt.want)
		}
	}
}
