package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// PerPageOptions are the page sizes the listing accepts. Anything else is
// silently normalized to DefaultPerPage.
var PerPageOptions = []int{24, 36, 48, 72}

const DefaultPerPage = 24

// ProductPage is one page of a subtree listing.
type ProductPage struct {
	Items       []Product
	TotalCount  int64
	PageCount   int
	CurrentPage int
	PageSize    int
}

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// NormalizePerPage maps any requested page size onto PerPageOptions,
// falling back to DefaultPerPage.
func NormalizePerPage(perPage int) int {
	for _, option := range PerPageOptions {
		if perPage == option {
			return perPage
		}
	}
	return DefaultPerPage
}

// ListBySubtree returns one page of the products whose product type belongs
// to any of categoryIDs, ordered by product name. The page number is clamped
// to the valid range; out-of-set page sizes fall back to the default.
// Product type, its category and the gallery are eager-loaded.
func (r *ProductsRepository) ListBySubtree(categoryIDs []uint, page, perPage int) (*ProductPage, error) {
	perPage = NormalizePerPage(perPage)

	result := &ProductPage{
		Items:       []Product{},
		PageCount:   1,
		CurrentPage: 1,
		PageSize:    perPage,
	}
	if len(categoryIDs) == 0 {
		return result, nil
	}

	query := r.db.Model(&Product{}).
		Joins("JOIN product_types ON product_types.id = products.product_type_id").
		Where("product_types.category_id IN ?", categoryIDs)

	if err := query.Count(&result.TotalCount).Error; err != nil {
		return nil, err
	}

	result.PageCount = int((result.TotalCount + int64(perPage) - 1) / int64(perPage))
	if result.PageCount < 1 {
		result.PageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > result.PageCount {
		page = result.PageCount
	}
	result.CurrentPage = page

	if err := query.
		Preload("ProductType").
		Preload("ProductType.Category").
		Preload("Images", orderGallery).
		Order("products.name").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// GetBySKU loads a product with its type, category and gallery by the
// external identity key.
func (r *ProductsRepository) GetBySKU(sku string) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("ProductType").
		Preload("ProductType.Category").
		Preload("Images", orderGallery).
		Where("sku = ?", sku).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func orderGallery(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order, id")
}
