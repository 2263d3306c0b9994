package matcher

import "github.com/seenimoa/agriprice/pkg/models"

// categoryKeywords maps a category to lower-case keywords tried in order
// when neither names nor types match. Report rows often carry only the
// local (Filipino) group name.
var categoryKeywords = map[models.Category][]string{
	models.CategoryKadiwaRice:         {"kadiwa", "rice-for-all", "rfa", "rice"},
	models.CategoryImportedRice:       {"imported", "commercial", "rice"},
	models.CategoryLocalRice:          {"local", "commercial", "rice"},
	models.CategoryCorn:               {"corn", "mais"},
	models.CategoryFish:               {"fish", "isda", "bangus", "tilapia"},
	models.CategoryLivestockPoultry:   {"livestock", "poultry", "beef", "pork", "chicken"},
	models.CategoryLowlandVegetables:  {"lowland", "vegetables", "gulay"},
	models.CategoryHighlandVegetables: {"highland", "vegetables", "gulay"},
	models.CategorySpices:             {"spices", "sibuyas", "garlic", "bawang"},
	models.CategoryFruits:             {"fruits", "prutas"},
	models.CategoryOther:              {"other commodities", "other", "sugar", "oil", "palm", "coconut"},
}

// Keywords returns the keywords for a category. Unknown categories use
// their own lower-cased name as the only keyword.
func Keywords(cat models.Category) []string {
	if kws, ok := categoryKeywords[cat]; ok {
		return append([]string(nil), kws...)
	}
	if k := norm(string(cat)); k != "" {
		return []string{k}
	}
	return nil
}
