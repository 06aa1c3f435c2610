package models

import "gorm.io/gorm"

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Ingredient{},
		&Recipe{}, &RecipeIngredient{},
		&ProductMapping{},
		&Sale{},
		&SalesUpload{},
	)
}
