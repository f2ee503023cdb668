package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrProductTypeNotFound is returned when a product type is not found.
var ErrProductTypeNotFound = errors.New("product type not found")

type ProductTypesRepository struct {
	db *gorm.DB
}

func NewProductTypesRepository(db *gorm.DB) *ProductTypesRepository {
	return &ProductTypesRepository{
		db: db,
	}
}

// BySlug loads a product type with its category and its products ordered by
// name.
func (r *ProductTypesRepository) BySlug(slug string) (*ProductType, error) {
	var productType ProductType
	if err := r.db.
		Preload("Category").
		Preload("Products", orderByName).
		Preload("Products.Images", orderGallery).
		Where("slug = ?", slug).
		First(&productType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductTypeNotFound
		}
		return nil, err
	}
	return &productType, nil
}

// Delete removes a product type. The delete is rejected with
// ErrProtectedReference while products still reference it.
func (r *ProductTypesRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var productType ProductType
		if err := tx.First(&productType, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductTypeNotFound
			}
			return err
		}
		var referenced int64
		if err := tx.Model(&Product{}).
			Where("product_type_id = ?", id).
			Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return fmt.Errorf("product type %q has %d products: %w", productType.Slug, referenced, ErrProtectedReference)
		}
		return tx.Delete(&productType).Error
	})
}
