package models

// Product is a single catalog position (SKU).
// The SKU is the external identity used in URLs.
type Product struct {
	ID            uint        `gorm:"primaryKey"`
	ProductTypeID uint        `gorm:"not null;index"`
	ProductType   ProductType `gorm:"foreignKey:ProductTypeID"`
	SKU           string      `gorm:"column:sku;uniqueIndex;not null"`
	Name          string      `gorm:"not null"`
	Multiplicity  int         `gorm:"not null;default:1"` // units per package
	Unit          string      `gorm:"not null;default:'pcs'"`

	MetaTitle       string
	MetaDescription string

	Images []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (p *Product) TableName() string {
	return "products"
}

// MainImage returns the image flagged as main, or nil when the gallery has
// none. Images must have been loaded.
func (p *Product) MainImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsMain {
			return &p.Images[i]
		}
	}
	return nil
}
