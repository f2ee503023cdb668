package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/magazix/catalog-service/tree"
)

// ErrCategoryNotFound is returned when a category is not found.
var ErrCategoryNotFound = errors.New("category not found")

// ErrProtectedReference is returned when a delete is rejected because other
// records still reference the target.
var ErrProtectedReference = errors.New("record is still referenced and cannot be deleted")

// CategoriesRepository stores the category forest and keeps its nested-set
// encoding consistent. Every mutation renumbers the forest inside the same
// transaction, so readers never observe a half-updated encoding.
type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{
		db: db,
	}
}

// Create inserts the category under its parent (or as a new root) and
// renumbers the forest. A missing parent fails with tree.ErrInvalidHierarchy
// before anything is written.
func (r *CategoriesRepository) Create(category *Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if category.ParentID != nil {
			var parent Category
			if err := tx.Select("id").First(&parent, *category.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return tree.ErrInvalidHierarchy
				}
				return err
			}
		}
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		return r.renumber(tx)
	})
}

// Move re-parents the category's subtree. Moving under a missing parent, or
// under the category itself or one of its descendants, fails with
// tree.ErrInvalidHierarchy. Sibling order stays name-ascending throughout.
func (r *CategoriesRepository) Move(id uint, newParentID *uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		forest, err := r.buildForest(tx)
		if err != nil {
			return err
		}
		if _, ok := forest.Position(id); !ok {
			return ErrCategoryNotFound
		}
		if newParentID != nil {
			if _, ok := forest.Position(*newParentID); !ok {
				return tree.ErrInvalidHierarchy
			}
			if *newParentID == id || forest.IsDescendant(*newParentID, id) {
				return tree.ErrInvalidHierarchy
			}
		}
		if err := tx.Model(&Category{}).Where("id = ?", id).
			Update("parent_id", newParentID).Error; err != nil {
			return err
		}
		return r.renumber(tx)
	})
}

// Delete removes the category and cascades over its whole subtree. The
// delete is rejected with ErrProtectedReference while any product type
// references a category inside the subtree; nothing is removed in that case.
func (r *CategoriesRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var category Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		var ids []uint
		if err := tx.Model(&Category{}).
			Where("tree_id = ? AND lft >= ? AND rgt <= ?", category.TreeID, category.Lft, category.Rgt).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		var referenced int64
		if err := tx.Model(&ProductType{}).
			Where("category_id IN ?", ids).
			Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return fmt.Errorf("category %q has %d product types: %w", category.Slug, referenced, ErrProtectedReference)
		}

		if err := tx.Where("id IN ?", ids).Delete(&Category{}).Error; err != nil {
			return err
		}
		return r.renumber(tx)
	})
}

// Roots returns the listing entry points ordered by name, with children
// loaded for child counts.
func (r *CategoriesRepository) Roots() ([]Category, error) {
	var categories []Category
	if err := r.db.
		Where("parent_id IS NULL").
		Order("name").
		Preload("Children", orderByName).
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// BySlug loads a category with its parent, children and product types.
func (r *CategoriesRepository) BySlug(slug string) (*Category, error) {
	var category Category
	if err := r.db.
		Preload("Parent").
		Preload("Children", orderByName).
		Preload("ProductTypes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order, name")
		}).
		Where("slug = ?", slug).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// RootBySlug resolves slug to a root category; non-root slugs are not found.
func (r *CategoriesRepository) RootBySlug(slug string) (*Category, error) {
	var category Category
	if err := r.db.
		Where("slug = ? AND parent_id IS NULL", slug).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Descendants returns the categories strictly inside category's subtree, in
// tree order.
func (r *CategoriesRepository) Descendants(category *Category) ([]Category, error) {
	var categories []Category
	if err := r.db.
		Where("tree_id = ? AND lft > ? AND rgt < ?", category.TreeID, category.Lft, category.Rgt).
		Order("lft").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// SubtreeIDs returns the ids of category and all its descendants, in tree
// order. Listing filters use this set, so products typed directly to the
// root category are listed alongside subcategory products.
func (r *CategoriesRepository) SubtreeIDs(category *Category) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&Category{}).
		Where("tree_id = ? AND lft >= ? AND rgt <= ?", category.TreeID, category.Lft, category.Rgt).
		Order("lft").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name")
}

func (r *CategoriesRepository) buildForest(tx *gorm.DB) (*tree.Forest, error) {
	var categories []Category
	if err := tx.Find(&categories).Error; err != nil {
		return nil, err
	}
	nodes := make([]tree.Node, len(categories))
	for i, c := range categories {
		nodes[i] = tree.Node{ID: c.ID, ParentID: c.ParentID, Name: c.Name}
	}
	return tree.Build(nodes)
}

// renumber recomputes the whole forest's nested-set encoding and writes back
// the rows whose position changed. The catalog's category count is small, so
// a full rebuild per mutation is cheaper than incremental span shifting and
// impossible to get wrong.
func (r *CategoriesRepository) renumber(tx *gorm.DB) error {
	var categories []Category
	if err := tx.Find(&categories).Error; err != nil {
		return err
	}
	nodes := make([]tree.Node, len(categories))
	for i, c := range categories {
		nodes[i] = tree.Node{ID: c.ID, ParentID: c.ParentID, Name: c.Name}
	}
	forest, err := tree.Build(nodes)
	if err != nil {
		return err
	}
	for _, c := range categories {
		pos, ok := forest.Position(c.ID)
		if !ok {
			return tree.ErrInvalidHierarchy
		}
		if pos.Lft == c.Lft && pos.Rgt == c.Rgt && pos.Depth == c.Depth && pos.TreeID == c.TreeID {
			continue
		}
		if err := tx.Model(&Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"lft":     pos.Lft,
			"rgt":     pos.Rgt,
			"depth":   pos.Depth,
			"tree_id": pos.TreeID,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}
