package models

// ProductImage is one entry in a product's gallery. At most one image per
// product carries IsMain; ImagesRepository.Save enforces that on every write.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;index"`
	Image     string `gorm:"not null"`
	AltText   string
	Order     int  `gorm:"column:sort_order;not null;default:0"`
	IsMain    bool `gorm:"not null;default:false"`
}

func (i *ProductImage) TableName() string {
	return "product_images"
}
