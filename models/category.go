package models

// Category is a node in the catalog's category forest.
// The Lft/Rgt/Depth/TreeID columns carry the nested-set encoding maintained
// by CategoriesRepository; they are never written outside a renumbering
// transaction.
type Category struct {
	ID       uint       `gorm:"primaryKey"`
	Name     string     `gorm:"not null"`
	Slug     string     `gorm:"uniqueIndex;not null"`
	ParentID *uint      `gorm:"index"`
	Parent   *Category  `gorm:"foreignKey:ParentID"`
	Children []Category `gorm:"foreignKey:ParentID"`
	Image    string

	MetaTitle       string
	MetaDescription string
	MetaKeywords    string // comma-separated

	Lft    int `gorm:"index;not null;default:0"`
	Rgt    int `gorm:"index;not null;default:0"`
	Depth  int `gorm:"not null;default:0"`
	TreeID int `gorm:"index;not null;default:0"`

	ProductTypes []ProductType `gorm:"foreignKey:CategoryID"`
}

func (c *Category) TableName() string {
	return "categories"
}

// IsRoot reports whether the category is a listing entry point.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
