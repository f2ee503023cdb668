package models

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ImagesRepository struct {
	db *gorm.DB
}

func NewImagesRepository(db *gorm.DB) *ImagesRepository {
	return &ImagesRepository{
		db: db,
	}
}

// Save persists image while keeping at most one main image per product.
// A claim on the main flag first locks the owning product row, so
// concurrent claims serialize: the later transaction waits, then sees the
// earlier winner's committed flag and demotes it. Without the lock, two
// inserts under read-committed isolation could each miss the other's
// uncommitted row and both keep the flag.
func (r *ImagesRepository) Save(image *ProductImage) error {
	if image.ProductID == 0 {
		return errors.New("product image requires a product")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if image.IsMain {
			var product Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id").
				First(&product, image.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if err := tx.Model(&ProductImage{}).
				Where("product_id = ? AND is_main = ? AND id <> ?", image.ProductID, true, image.ID).
				Update("is_main", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(image).Error
	})
}

// Gallery returns a product's images in display order.
func (r *ImagesRepository) Gallery(productID uint) ([]ProductImage, error) {
	var images []ProductImage
	if err := orderGallery(r.db.Where("product_id = ?", productID)).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}
