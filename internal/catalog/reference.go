package catalog

import "github.com/seenimoa/agriprice/pkg/models"

// Reference is one row of the reference price table: a catalog descriptor
// plus the historically plausible base price and spread used to synthesize
// estimates when no published price is reachable.
type Reference struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Category  models.Category `yaml:"category"`
	Unit      string          `yaml:"unit"`
	BasePrice float64         `yaml:"base_price"`
	Variance  float64         `yaml:"variance"`
}

// Descriptor returns the catalog view of the reference row.
func (r Reference) Descriptor() models.CommodityDescriptor {
	return models.CommodityDescriptor{ID: r.ID, Name: r.Name, Category: r.Category, Unit: r.Unit}
}

// referenceTable is the default catalog in report order. Prices are pesos
// per unit, national average.
var referenceTable = []Reference{
	// Kadiwa rice-for-all
	{ID: "kadiwa-premium", Name: "Premium (RFA5)", Category: models.CategoryKadiwaRice, Unit: "kg", BasePrice: 45, Variance: 2},
	{ID: "kadiwa-well-milled", Name: "Well Milled (RFA25)", Category: models.CategoryKadiwaRice, Unit: "kg", BasePrice: 42, Variance: 2},
	{ID: "kadiwa-regular-milled", Name: "Regular Milled (RFA100)", Category: models.CategoryKadiwaRice, Unit: "kg", BasePrice: 40, Variance: 1.5},
	{ID: "kadiwa-benteng-bigas", Name: "P20 Benteng Bigas Meron Na", Category: models.CategoryKadiwaRice, Unit: "kg", BasePrice: 20, Variance: 0},

	// Imported commercial rice
	{ID: "imported-special", Name: "Special (Imported)", Category: models.CategoryImportedRice, Unit: "kg", BasePrice: 65, Variance: 3},
	{ID: "imported-premium", Name: "Premium (Imported)", Category: models.CategoryImportedRice, Unit: "kg", BasePrice: 58, Variance: 2.5},
	{ID: "imported-well-milled", Name: "Well Milled (Imported)", Category: models.CategoryImportedRice, Unit: "kg", BasePrice: 52, Variance: 2},
	{ID: "imported-regular-milled", Name: "Regular Milled (Imported)", Category: models.CategoryImportedRice, Unit: "kg", BasePrice: 48, Variance: 2},

	// Local commercial rice
	{ID: "local-special", Name: "Special (Local)", Category: models.CategoryLocalRice, Unit: "kg", BasePrice: 62, Variance: 3},
	{ID: "local-premium", Name: "Premium (Local)", Category: models.CategoryLocalRice, Unit: "kg", BasePrice: 55, Variance: 2.5},
	{ID: "local-well-milled", Name: "Well Milled (Local)", Category: models.CategoryLocalRice, Unit: "kg", BasePrice: 50, Variance: 2},
	{ID: "local-regular-milled", Name: "Regular Milled (Local)", Category: models.CategoryLocalRice, Unit: "kg", BasePrice: 45, Variance: 2},

	// Corn
	{ID: "corn-white", Name: "Corn (White)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 25, Variance: 2},
	{ID: "corn-yellow", Name: "Corn (Yellow)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 23, Variance: 2},
	{ID: "corn-grits-white", Name: "Corn Grits (White, Food Grade)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 28, Variance: 2.5},
	{ID: "corn-grits-yellow", Name: "Corn Grits (Yellow, Food Grade)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 26, Variance: 2.5},
	{ID: "corn-cracked-yellow", Name: "Corn Cracked (Yellow, Feed Grade)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 22, Variance: 1.5},
	{ID: "corn-grits-feed", Name: "Corn Grits (Feed Grade)", Category: models.CategoryCorn, Unit: "kg", BasePrice: 20, Variance: 1.5},

	// Fish
	{ID: "fish-bangus", Name: "Bangus", Category: models.CategoryFish, Unit: "kg", BasePrice: 180, Variance: 15},
	{ID: "fish-tilapia", Name: "Tilapia", Category: models.CategoryFish, Unit: "kg", BasePrice: 120, Variance: 10},
	{ID: "fish-galunggong-local", Name: "Galunggong (Local)", Category: models.CategoryFish, Unit: "kg", BasePrice: 140, Variance: 12},
	{ID: "fish-galunggong-imported", Name: "Galunggong (Imported)", Category: models.CategoryFish, Unit: "kg", BasePrice: 130, Variance: 10},
	{ID: "fish-alumahan", Name: "Alumahan", Category: models.CategoryFish, Unit: "kg", BasePrice: 160, Variance: 15},
	{ID: "fish-bonito", Name: "Bonito", Category: models.CategoryFish, Unit: "kg", BasePrice: 170, Variance: 15},
	{ID: "fish-salmon-head", Name: "Salmon Head", Category: models.CategoryFish, Unit: "kg", BasePrice: 150, Variance: 12},
	{ID: "fish-sardines", Name: "Sardines (Tamban)", Category: models.CategoryFish, Unit: "kg", BasePrice: 110, Variance: 8},
	{ID: "fish-squid", Name: "Squid (Pusit Bisaya)", Category: models.CategoryFish, Unit: "kg", BasePrice: 200, Variance: 20},
	{ID: "fish-yellowfin-tuna", Name: "Yellow-Fin Tuna (Tambakol)", Category: models.CategoryFish, Unit: "kg", BasePrice: 250, Variance: 25},

	// Livestock & poultry
	{ID: "beef-rump", Name: "Beef Rump", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 380, Variance: 20},
	{ID: "beef-brisket", Name: "Beef Brisket", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 350, Variance: 18},
	{ID: "pork-ham", Name: "Pork Ham", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 280, Variance: 15},
	{ID: "pork-belly", Name: "Pork Belly", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 320, Variance: 18},
	{ID: "pork-kasim-frozen", Name: "Frozen Kasim", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 260, Variance: 12},
	{ID: "pork-liempo-frozen", Name: "Frozen Liempo", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 270, Variance: 15},
	{ID: "chicken-whole", Name: "Whole Chicken", Category: models.CategoryLivestockPoultry, Unit: "kg", BasePrice: 160, Variance: 10},
	{ID: "egg-white-pewee", Name: "Chicken Egg (White, Pewee)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 7.5, Variance: 0.5},
	{ID: "egg-white-extra-small", Name: "Chicken Egg (White, Extra Small)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 8, Variance: 0.5},
	{ID: "egg-white-small", Name: "Chicken Egg (White, Small)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 8.5, Variance: 0.5},
	{ID: "egg-white-medium", Name: "Chicken Egg (White, Medium)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 9, Variance: 0.5},
	{ID: "egg-white-large", Name: "Chicken Egg (White, Large)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 9.5, Variance: 0.5},
	{ID: "egg-white-extra-large", Name: "Chicken Egg (White, Extra Large)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 10, Variance: 0.5},
	{ID: "egg-white-jumbo", Name: "Chicken Egg (White, Jumbo)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 10.5, Variance: 0.5},
	{ID: "egg-brown-medium", Name: "Chicken Egg (Brown, Medium)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 9.5, Variance: 0.5},
	{ID: "egg-brown-large", Name: "Chicken Egg (Brown, Large)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 10, Variance: 0.5},
	{ID: "egg-brown-extra-large", Name: "Chicken Egg (Brown, Extra Large)", Category: models.CategoryLivestockPoultry, Unit: "piece", BasePrice: 10.5, Variance: 0.5},

	// Lowland vegetables
	{ID: "lowland-ampalaya", Name: "Ampalaya", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 60, Variance: 8},
	{ID: "lowland-sitao", Name: "Sitao", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 80, Variance: 10},
	{ID: "lowland-pechay-native", Name: "Pechay (Native)", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 45, Variance: 6},
	{ID: "lowland-squash", Name: "Squash", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 35, Variance: 5},
	{ID: "lowland-eggplant", Name: "Eggplant", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 50, Variance: 7},
	{ID: "lowland-tomato", Name: "Tomato", Category: models.CategoryLowlandVegetables, Unit: "kg", BasePrice: 70, Variance: 10},

	// Highland vegetables
	{ID: "highland-bell-pepper-green", Name: "Bell Pepper (Green)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 120, Variance: 15},
	{ID: "highland-bell-pepper-red", Name: "Bell Pepper (Red)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 140, Variance: 18},
	{ID: "highland-broccoli", Name: "Broccoli", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 150, Variance: 20},
	{ID: "highland-cabbage-rare-ball", Name: "Cabbage (Rare Ball)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 40, Variance: 6},
	{ID: "highland-cabbage-scorpio", Name: "Cabbage (Scorpio)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 38, Variance: 5},
	{ID: "highland-cabbage-wonder-ball", Name: "Cabbage (Wonder Ball)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 42, Variance: 6},
	{ID: "highland-carrots", Name: "Carrots", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 80, Variance: 10},
	{ID: "highland-habichuelas", Name: "Habichuelas (Baguio Beans)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 100, Variance: 12},
	{ID: "highland-white-potato", Name: "White Potato", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 70, Variance: 8},
	{ID: "highland-pechay-baguio", Name: "Pechay (Baguio)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 50, Variance: 7},
	{ID: "highland-chayote", Name: "Chayote", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 40, Variance: 6},
	{ID: "highland-cauliflower", Name: "Cauliflower", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 120, Variance: 15},
	{ID: "highland-celery", Name: "Celery", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 90, Variance: 12},
	{ID: "highland-lettuce-green-ice", Name: "Lettuce (Green Ice)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 80, Variance: 10},
	{ID: "highland-lettuce-iceberg", Name: "Lettuce (Iceberg)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 85, Variance: 12},
	{ID: "highland-lettuce-romaine", Name: "Lettuce (Romaine)", Category: models.CategoryHighlandVegetables, Unit: "kg", BasePrice: 82, Variance: 10},

	// Spices
	{ID: "spice-red-onion", Name: "Red Onion", Category: models.CategorySpices, Unit: "kg", BasePrice: 100, Variance: 15},
	{ID: "spice-red-onion-imported", Name: "Red Onion (Imported)", Category: models.CategorySpices, Unit: "kg", BasePrice: 95, Variance: 12},
	{ID: "spice-white-onion", Name: "White Onion", Category: models.CategorySpices, Unit: "kg", BasePrice: 110, Variance: 15},
	{ID: "spice-white-onion-imported", Name: "White Onion (Imported)", Category: models.CategorySpices, Unit: "kg", BasePrice: 105, Variance: 12},
	{ID: "spice-garlic-imported", Name: "Garlic (Imported)", Category: models.CategorySpices, Unit: "kg", BasePrice: 200, Variance: 25},
	{ID: "spice-garlic-native", Name: "Garlic (Native)", Category: models.CategorySpices, Unit: "kg", BasePrice: 220, Variance: 30},
	{ID: "spice-ginger", Name: "Ginger", Category: models.CategorySpices, Unit: "kg", BasePrice: 140, Variance: 20},
	{ID: "spice-chilli-red", Name: "Chilli (Red)", Category: models.CategorySpices, Unit: "kg", BasePrice: 180, Variance: 25},

	// Fruits
	{ID: "fruit-calamansi", Name: "Calamansi", Category: models.CategoryFruits, Unit: "kg", BasePrice: 70, Variance: 10},
	{ID: "fruit-banana-lakatan", Name: "Banana (Lakatan)", Category: models.CategoryFruits, Unit: "kg", BasePrice: 90, Variance: 12},
	{ID: "fruit-banana-latundan", Name: "Banana (Latundan)", Category: models.CategoryFruits, Unit: "kg", BasePrice: 80, Variance: 10},
	{ID: "fruit-banana-saba", Name: "Banana (Saba)", Category: models.CategoryFruits, Unit: "kg", BasePrice: 50, Variance: 8},
	{ID: "fruit-papaya", Name: "Papaya", Category: models.CategoryFruits, Unit: "kg", BasePrice: 45, Variance: 8},
	{ID: "fruit-mango-carabao", Name: "Mango (Carabao)", Category: models.CategoryFruits, Unit: "kg", BasePrice: 140, Variance: 20},
	{ID: "fruit-avocado", Name: "Avocado", Category: models.CategoryFruits, Unit: "kg", BasePrice: 120, Variance: 20},
	{ID: "fruit-melon", Name: "Melon", Category: models.CategoryFruits, Unit: "kg", BasePrice: 60, Variance: 10},
	{ID: "fruit-pomelo", Name: "Pomelo", Category: models.CategoryFruits, Unit: "kg", BasePrice: 90, Variance: 15},
	{ID: "fruit-watermelon", Name: "Watermelon", Category: models.CategoryFruits, Unit: "kg", BasePrice: 40, Variance: 8},

	// Other basic commodities
	{ID: "other-sugar-refined", Name: "Sugar (Refined)", Category: models.CategoryOther, Unit: "kg", BasePrice: 60, Variance: 5},
	{ID: "other-sugar-washed", Name: "Sugar (Washed)", Category: models.CategoryOther, Unit: "kg", BasePrice: 55, Variance: 4},
	{ID: "other-sugar-brown", Name: "Sugar (Brown)", Category: models.CategoryOther, Unit: "kg", BasePrice: 50, Variance: 4},
	{ID: "other-cooking-oil-palm", Name: "Cooking Oil (Palm)", Category: models.CategoryOther, Unit: "L", BasePrice: 95, Variance: 8},
	{ID: "other-cooking-oil-coconut", Name: "Cooking Oil (Coconut)", Category: models.CategoryOther, Unit: "L", BasePrice: 100, Variance: 10},
}

// References returns a copy of the built-in reference table.
func References() []Reference {
	return append([]Reference(nil), referenceTable...)
}
