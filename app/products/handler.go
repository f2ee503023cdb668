package products

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/magazix/catalog-service/messages"
	"github.com/magazix/catalog-service/meta"
	"github.com/magazix/catalog-service/models"
)

type CategoryRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type TypeRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProductSummary struct {
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Multiplicity int    `json:"multiplicity"`
	Unit         string `json:"unit"`
	MainImage    string `json:"main_image,omitempty"`
}

type GalleryImage struct {
	Image   string `json:"image"`
	AltText string `json:"alt_text,omitempty"`
	Order   int    `json:"order"`
	IsMain  bool   `json:"is_main"`
}

type TypeDetail struct {
	Meta        meta.Object      `json:"meta"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Category    CategoryRef      `json:"category"`
	Products    []ProductSummary `json:"products"`
}

type ProductDetail struct {
	Meta         meta.Object    `json:"meta"`
	SKU          string         `json:"sku"`
	Name         string         `json:"name"`
	Multiplicity int            `json:"multiplicity"`
	Unit         string         `json:"unit"`
	ProductType  TypeRef        `json:"product_type"`
	Category     CategoryRef    `json:"category"`
	Gallery      []GalleryImage `json:"gallery"`
}

type ProductTypeProvider interface {
	BySlug(slug string) (*models.ProductType, error)
	Delete(id uint) error
}

type ProductProvider interface {
	GetBySKU(sku string) (*models.Product, error)
}

type ImageSaver interface {
	Save(image *models.ProductImage) error
}

type ProductsHandler struct {
	types    ProductTypeProvider
	products ProductProvider
	images   ImageSaver
}

func NewProductsHandler(t ProductTypeProvider, p ProductProvider, i ImageSaver) *ProductsHandler {
	return &ProductsHandler{
		types:    t,
		products: p,
		images:   i,
	}
}

// HandleGetType returns a product type's metadata and its products ordered
// by name.
func (h *ProductsHandler) HandleGetType(w http.ResponseWriter, r *http.Request) {
	productType, err := h.types.BySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrProductTypeNotFound) {
			http.Error(w, "Product type not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch product type", http.StatusInternalServerError)
		return
	}

	detail := TypeDetail{
		Meta:        productType.Meta(),
		Name:        productType.Name,
		Slug:        productType.Slug,
		Description: productType.Description,
		Category: CategoryRef{
			Name: productType.Category.Name,
			Slug: productType.Category.Slug,
		},
		Products: make([]ProductSummary, len(productType.Products)),
	}
	for i, p := range productType.Products {
		detail.Products[i] = ProductSummary{
			SKU:          p.SKU,
			Name:         p.Name,
			Multiplicity: p.Multiplicity,
			Unit:         p.Unit,
		}
		if main := p.MainImage(); main != nil {
			detail.Products[i].MainImage = main.Image
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleDeleteType deletes a product type. The delete is rejected while
// products still reference it.
func (h *ProductsHandler) HandleDeleteType(w http.ResponseWriter, r *http.Request) {
	productType, err := h.types.BySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, models.ErrProductTypeNotFound) {
			http.Error(w, "Product type not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch product type", http.StatusInternalServerError)
		return
	}

	if err := h.types.Delete(productType.ID); err != nil {
		if errors.Is(err, models.ErrProtectedReference) {
			http.Error(w, "Product type still has products", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to delete product type", http.StatusInternalServerError)
		return
	}

	messages.Add(r.Context(), messages.LevelSuccess, fmt.Sprintf("Product type %q deleted", productType.Name))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product type deleted"})
}

// HandleGetProduct returns a product's metadata and gallery by SKU.
func (h *ProductsHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySKU(r.PathValue("sku"))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch product", http.StatusInternalServerError)
		return
	}

	detail := ProductDetail{
		Meta:         product.Meta(),
		SKU:          product.SKU,
		Name:         product.Name,
		Multiplicity: product.Multiplicity,
		Unit:         product.Unit,
		ProductType: TypeRef{
			Name: product.ProductType.Name,
			Slug: product.ProductType.Slug,
		},
		Category: CategoryRef{
			Name: product.ProductType.Category.Name,
			Slug: product.ProductType.Category.Slug,
		},
		Gallery: make([]GalleryImage, len(product.Images)),
	}
	for i, img := range product.Images {
		detail.Gallery[i] = GalleryImage{
			Image:   img.Image,
			AltText: img.AltText,
			Order:   img.Order,
			IsMain:  img.IsMain,
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleAddImage appends an image to a product's gallery. Saving an image
// with is_main set demotes the previous main image in the same transaction.
func (h *ProductsHandler) HandleAddImage(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySKU(r.PathValue("sku"))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to fetch product", http.StatusInternalServerError)
		return
	}

	var input struct {
		Image   string `json:"image"`
		AltText string `json:"alt_text"`
		Order   int    `json:"order"`
		IsMain  bool   `json:"is_main"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Image == "" {
		http.Error(w, "Missing image", http.StatusBadRequest)
		return
	}

	image := &models.ProductImage{
		ProductID: product.ID,
		Image:     input.Image,
		AltText:   input.AltText,
		Order:     input.Order,
		IsMain:    input.IsMain,
	}
	if err := h.images.Save(image); err != nil {
		http.Error(w, "Failed to save image", http.StatusInternalServerError)
		return
	}

	messages.Add(r.Context(), messages.LevelSuccess, fmt.Sprintf("Image added to %s", product.SKU))
	writeJSON(w, http.StatusCreated, map[string]uint{"id": image.ID})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
