package models

// ProductType groups products into a series under one category.
// The category reference is protected: the category cannot be deleted while
// product types point at it (enforced in CategoriesRepository.Delete).
type ProductType struct {
	ID          uint     `gorm:"primaryKey"`
	CategoryID  uint     `gorm:"not null;index"`
	Category    Category `gorm:"foreignKey:CategoryID"`
	Name        string   `gorm:"not null"`
	Slug        string   `gorm:"uniqueIndex;not null"`
	Description string
	Image       string
	Order       int `gorm:"column:sort_order;not null;default:0"`

	MetaTitle       string
	MetaDescription string

	Products []Product `gorm:"foreignKey:ProductTypeID"`
}

func (t *ProductType) TableName() string {
	return "product_types"
}
