package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/magazix/catalog-service/cache"
	"github.com/magazix/catalog-service/messages"
	"github.com/magazix/catalog-service/meta"
	"github.com/magazix/catalog-service/models"
	"github.com/magazix/catalog-service/tree"
)

type CategorySummary struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ChildCount int    `json:"child_count"`
}

type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TypeSummary struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image,omitempty"`
}

type ProductItem struct {
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Multiplicity int         `json:"multiplicity"`
	Unit         string      `json:"unit"`
	ProductType  TypeSummary `json:"product_type"`
	Category     CategoryRef `json:"category"`
	MainImage    string      `json:"main_image,omitempty"`
}

// Listing is one page of a root category's products. Both the full detail
// endpoint and the fragment endpoint embed the same structure.
type Listing struct {
	Products       []ProductItem `json:"products"`
	TotalCount     int64         `json:"total_count"`
	PageCount      int           `json:"page_count"`
	CurrentPage    int           `json:"current_page"`
	PerPage        int           `json:"per_page"`
	PerPageOptions []int         `json:"per_page_options"`
	ViewMode       string        `json:"view_mode"`
}

type CategoryDetail struct {
	Meta         meta.Object       `json:"meta"`
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Parent       *CategoryRef      `json:"parent,omitempty"`
	Children     []CategorySummary `json:"children"`
	ProductTypes []TypeSummary     `json:"product_types"`
	Listing      *Listing          `json:"listing,omitempty"`
}

type CategoryProvider interface {
	Roots() ([]models.Category, error)
	BySlug(slug string) (*models.Category, error)
	RootBySlug(slug string) (*models.Category, error)
	SubtreeIDs(category *models.Category) ([]uint, error)
	Create(category *models.Category) error
	Move(id uint, newParentID *uint) error
	Delete(id uint) error
}

type ProductLister interface {
	ListBySubtree(categoryIDs []uint, page, perPage int) (*models.ProductPage, error)
}

type CatalogHandler struct {
	categories CategoryProvider
	products   ProductLister
	cache      cache.Store
}

func NewCatalogHandler(c CategoryProvider, p ProductLister, store cache.Store) *CatalogHandler {
	return &CatalogHandler{
		categories: c,
		products:   p,
		cache:      store,
	}
}

// HandleGetCategories lists the root categories with their child counts.
func (h *CatalogHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	roots, err := h.categories.Roots()
	if err != nil {
		http.Error(w, "failed to fetch categories", http.StatusInternalServerError)
		return
	}

	response := make([]CategorySummary, len(roots))
	for i, c := range roots {
		response[i] = CategorySummary{
			Name:       c.Name,
			Slug:       c.Slug,
			ChildCount: len(c.Children),
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleGetCategory returns a category's metadata, children and product
// types. Root categories additionally embed the first page of their subtree
// listing, driven by the per_page/page/view query parameters.
func (h *CatalogHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.BySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch category", http.StatusInternalServerError)
		return
	}

	detail := CategoryDetail{
		Meta:         category.Meta(),
		Name:         category.Name,
		Slug:         category.Slug,
		Children:     make([]CategorySummary, len(category.Children)),
		ProductTypes: make([]TypeSummary, len(category.ProductTypes)),
	}
	if category.Parent != nil {
		detail.Parent = &CategoryRef{Name: category.Parent.Name, Slug: category.Parent.Slug}
	}
	for i, child := range category.Children {
		detail.Children[i] = CategorySummary{Name: child.Name, Slug: child.Slug}
	}
	for i, t := range category.ProductTypes {
		detail.ProductTypes[i] = TypeSummary{Name: t.Name, Slug: t.Slug, Image: t.Image}
	}

	// Only root categories are listing entry points.
	if category.IsRoot() {
		listing, err := h.listing(r, category)
		if err != nil {
			http.Error(w, "failed to fetch products", http.StatusInternalServerError)
			return
		}
		detail.Listing = listing
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleGetCategoryProducts is the fragment variant of the category listing:
// it computes the same page as HandleGetCategory but returns only the
// listing. Non-root slugs are not found here.
func (h *CatalogHandler) HandleGetCategoryProducts(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.RootBySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch category", http.StatusInternalServerError)
		return
	}

	listing, err := h.listing(r, category)
	if err != nil {
		http.Error(w, "failed to fetch products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleCreateCategory inserts a category under an optional parent.
func (h *CatalogHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name            string `json:"name"`
		Slug            string `json:"slug"`
		ParentID        *uint  `json:"parent_id"`
		Image           string `json:"image"`
		MetaTitle       string `json:"meta_title"`
		MetaDescription string `json:"meta_description"`
		MetaKeywords    string `json:"meta_keywords"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Slug == "" {
		http.Error(w, "Missing name or slug", http.StatusBadRequest)
		return
	}

	category := &models.Category{
		Name:            input.Name,
		Slug:            input.Slug,
		ParentID:        input.ParentID,
		Image:           input.Image,
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		MetaKeywords:    input.MetaKeywords,
	}
	if err := h.categories.Create(category); err != nil {
		if errors.Is(err, tree.ErrInvalidHierarchy) {
			http.Error(w, "Parent category does not exist", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	messages.Add(r.Context(), messages.LevelSuccess, fmt.Sprintf("Category %q created", category.Name))
	writeJSON(w, http.StatusCreated, map[string]string{"slug": category.Slug})
}

// HandleMoveCategory re-parents a category's subtree.
func (h *CatalogHandler) HandleMoveCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.BySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch category", http.StatusInternalServerError)
		return
	}

	var input struct {
		ParentID *uint `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.categories.Move(category.ID, input.ParentID); err != nil {
		if errors.Is(err, tree.ErrInvalidHierarchy) {
			http.Error(w, "Move would break the hierarchy", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to move category", http.StatusInternalServerError)
		return
	}

	messages.Add(r.Context(), messages.LevelSuccess, fmt.Sprintf("Category %q moved", category.Name))
	writeJSON(w, http.StatusOK, map[string]string{"slug": category.Slug})
}

// HandleDeleteCategory deletes a category and its subtree. The delete is
// rejected while product types reference any category in the subtree.
func (h *CatalogHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.BySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch category", http.StatusInternalServerError)
		return
	}

	if err := h.categories.Delete(category.ID); err != nil {
		if errors.Is(err, models.ErrProtectedReference) {
			http.Error(w, "Category still has product types", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	messages.Add(r.Context(), messages.LevelSuccess, fmt.Sprintf("Category %q deleted", category.Name))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}

// listing resolves the query parameters leniently, serves the page from the
// cache when possible and assembles it from the repositories otherwise.
func (h *CatalogHandler) listing(r *http.Request, category *models.Category) (*Listing, error) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page = n
		}
	}
	// Floor before the cache key is formed so page=-3 and page=1 share one
	// entry. Pages past the end still clamp in the repository.
	if page < 1 {
		page = 1
	}
	perPage := models.DefaultPerPage
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			perPage = n
		}
	}
	perPage = models.NormalizePerPage(perPage)
	viewMode := r.URL.Query().Get("view")
	if viewMode == "" {
		viewMode = "list"
	}

	key := fmt.Sprintf("listing:%s:%d:%d", category.Slug, page, perPage)
	var listing Listing
	if hit, err := h.cache.Get(r.Context(), key, &listing); err == nil && hit {
		listing.ViewMode = viewMode
		return &listing, nil
	}

	ids, err := h.categories.SubtreeIDs(category)
	if err != nil {
		return nil, err
	}
	result, err := h.products.ListBySubtree(ids, page, perPage)
	if err != nil {
		return nil, err
	}

	items := make([]ProductItem, len(result.Items))
	for i, p := range result.Items {
		items[i] = ProductItem{
			SKU:          p.SKU,
			Name:         p.Name,
			Multiplicity: p.Multiplicity,
			Unit:         p.Unit,
			ProductType: TypeSummary{
				Name:  p.ProductType.Name,
				Slug:  p.ProductType.Slug,
				Image: p.ProductType.Image,
			},
			Category: CategoryRef{
				Name: p.ProductType.Category.Name,
				Slug: p.ProductType.Category.Slug,
			},
		}
		if main := p.MainImage(); main != nil {
			items[i].MainImage = main.Image
		}
	}

	listing = Listing{
		Products:       items,
		TotalCount:     result.TotalCount,
		PageCount:      result.PageCount,
		CurrentPage:    result.CurrentPage,
		PerPage:        result.PageSize,
		PerPageOptions: models.PerPageOptions,
	}
	// Stale listings are acceptable; a failed set only costs the next reader
	// a database round trip.
	_ = h.cache.Set(r.Context(), key, listing)

	listing.ViewMode = viewMode
	return &listing, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
