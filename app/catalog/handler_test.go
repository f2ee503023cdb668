package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazix/catalog-service/cache"
	"github.com/magazix/catalog-service/models"
	"github.com/magazix/catalog-service/tree"
)

// --- Mocks ---

type MockCategories struct {
	Roots_   []models.Category
	BySlug_  map[string]*models.Category
	Subtrees map[uint][]uint

	CreateErr error
	MoveErr   error
	DeleteErr error

	created     *models.Category
	movedID     uint
	movedParent *uint
	deletedID   uint
}

func (m *MockCategories) Roots() ([]models.Category, error) {
	return m.Roots_, nil
}

func (m *MockCategories) BySlug(slug string) (*models.Category, error) {
	if c, ok := m.BySlug_[slug]; ok {
		return c, nil
	}
	return nil, models.ErrCategoryNotFound
}

func (m *MockCategories) RootBySlug(slug string) (*models.Category, error) {
	if c, ok := m.BySlug_[slug]; ok && c.IsRoot() {
		return c, nil
	}
	return nil, models.ErrCategoryNotFound
}

func (m *MockCategories) SubtreeIDs(category *models.Category) ([]uint, error) {
	return m.Subtrees[category.ID], nil
}

func (m *MockCategories) Create(category *models.Category) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.created = category
	return nil
}

func (m *MockCategories) Move(id uint, newParentID *uint) error {
	if m.MoveErr != nil {
		return m.MoveErr
	}
	m.movedID = id
	m.movedParent = newParentID
	return nil
}

func (m *MockCategories) Delete(id uint) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.deletedID = id
	return nil
}

type MockLister struct {
	Page *models.ProductPage

	lastIDs     []uint
	lastPage    int
	lastPerPage int
}

func (m *MockLister) ListBySubtree(categoryIDs []uint, page, perPage int) (*models.ProductPage, error) {
	m.lastIDs = categoryIDs
	m.lastPage = page
	m.lastPerPage = perPage
	if m.Page != nil {
		return m.Page, nil
	}
	return &models.ProductPage{
		Items:       []models.Product{},
		PageCount:   1,
		CurrentPage: 1,
		PageSize:    models.NormalizePerPage(perPage),
	}, nil
}

// mapStore is an in-memory cache.Store for asserting the cache-aside path.
type mapStore struct {
	values map[string][]byte
	sets   int
	hits   int
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string][]byte{}}
}

func (s *mapStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := s.values[key]
	if !ok {
		return false, nil
	}
	s.hits++
	return true, json.Unmarshal(data, dest)
}

func (s *mapStore) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = data
	s.sets++
	return nil
}

func uintPtr(v uint) *uint { return &v }

func fixtureCategories() *MockCategories {
	root := &models.Category{ID: 1, Name: "Valves", Slug: "valves", MetaKeywords: "valves, industrial"}
	leaf := &models.Category{ID: 2, Name: "Ball Valves", Slug: "ball-valves", ParentID: uintPtr(1), Parent: root}
	root.Children = []models.Category{*leaf}
	return &MockCategories{
		Roots_:   []models.Category{*root},
		BySlug_:  map[string]*models.Category{"valves": root, "ball-valves": leaf},
		Subtrees: map[uint][]uint{1: {1, 2}, 2: {2}},
	}
}

func fixturePage() *models.ProductPage {
	return &models.ProductPage{
		Items: []models.Product{{
			SKU:          "BV-100",
			Name:         "Ball Valve 100",
			Multiplicity: 1,
			Unit:         "pcs",
			ProductType: models.ProductType{
				Name: "Series X",
				Slug: "series-x",
				Category: models.Category{
					Name: "Ball Valves",
					Slug: "ball-valves",
				},
			},
			Images: []models.ProductImage{{Image: "bv.jpg", IsMain: true}},
		}},
		TotalCount:  1,
		PageCount:   1,
		CurrentPage: 1,
		PageSize:    24,
	}
}

// --- Tests ---

func TestHandleGetCategories(t *testing.T) {
	h := NewCatalogHandler(fixtureCategories(), &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	w := httptest.NewRecorder()
	h.HandleGetCategories(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []CategorySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "valves", got[0].Slug)
	assert.Equal(t, 1, got[0].ChildCount)
}

func TestHandleGetCategoryEmbedsListingForRoots(t *testing.T) {
	lister := &MockLister{Page: fixturePage()}
	h := NewCatalogHandler(fixtureCategories(), lister, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/category/valves", nil)
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleGetCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got CategoryDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

	assert.Equal(t, "Valves", got.Meta.Title)
	assert.Equal(t, []string{"valves", "industrial"}, got.Meta.Keywords)
	require.NotNil(t, got.Listing)
	require.Len(t, got.Listing.Products, 1)
	assert.Equal(t, "BV-100", got.Listing.Products[0].SKU)
	assert.Equal(t, "bv.jpg", got.Listing.Products[0].MainImage)
	assert.Equal(t, int64(1), got.Listing.TotalCount)
	assert.Equal(t, "list", got.Listing.ViewMode)
	assert.Equal(t, []int{24, 36, 48, 72}, got.Listing.PerPageOptions)

	// The whole subtree was queried, root included.
	assert.Equal(t, []uint{1, 2}, lister.lastIDs)
}

func TestHandleGetCategoryNonRootHasNoListing(t *testing.T) {
	lister := &MockLister{Page: fixturePage()}
	h := NewCatalogHandler(fixtureCategories(), lister, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/category/ball-valves", nil)
	req.SetPathValue("slug", "ball-valves")
	w := httptest.NewRecorder()
	h.HandleGetCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got CategoryDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Nil(t, got.Listing)
	require.NotNil(t, got.Parent)
	assert.Equal(t, "valves", got.Parent.Slug)
	assert.Nil(t, lister.lastIDs, "the lister must not be called for non-roots")
}

func TestHandleGetCategoryNotFound(t *testing.T) {
	h := NewCatalogHandler(fixtureCategories(), &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/category/nope", nil)
	req.SetPathValue("slug", "nope")
	w := httptest.NewRecorder()
	h.HandleGetCategory(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetCategoryProductsFragment(t *testing.T) {
	lister := &MockLister{Page: fixturePage()}
	h := NewCatalogHandler(fixtureCategories(), lister, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/category/valves/products?view=grid", nil)
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleGetCategoryProducts(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "grid", got.ViewMode)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "BV-100", got.Products[0].SKU)
}

func TestHandleGetCategoryProductsRejectsNonRoot(t *testing.T) {
	h := NewCatalogHandler(fixtureCategories(), &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodGet, "/category/ball-valves/products", nil)
	req.SetPathValue("slug", "ball-valves")
	w := httptest.NewRecorder()
	h.HandleGetCategoryProducts(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingParameterNormalization(t *testing.T) {
	cases := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, 24},
		{"valid", "?page=2&per_page=48", 2, 48},
		{"per_page out of set", "?per_page=999", 1, 24},
		{"per_page junk", "?per_page=abc", 1, 24},
		{"page junk", "?page=abc", 1, 24},
		{"negative page floored", "?page=-3", 1, 24},
		{"zero page floored", "?page=0", 1, 24},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lister := &MockLister{Page: fixturePage()}
			h := NewCatalogHandler(fixtureCategories(), lister, cache.Noop{})

			req := httptest.NewRequest(http.MethodGet, "/category/valves/products"+tc.query, nil)
			req.SetPathValue("slug", "valves")
			w := httptest.NewRecorder()
			h.HandleGetCategoryProducts(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantPage, lister.lastPage)
			assert.Equal(t, tc.wantPerPage, lister.lastPerPage)
		})
	}
}

func TestListingServedFromCache(t *testing.T) {
	lister := &MockLister{Page: fixturePage()}
	store := newMapStore()
	h := NewCatalogHandler(fixtureCategories(), lister, store)

	req := httptest.NewRequest(http.MethodGet, "/category/valves/products", nil)
	req.SetPathValue("slug", "valves")
	h.HandleGetCategoryProducts(httptest.NewRecorder(), req)
	assert.Equal(t, 1, store.sets)

	// Second request hits the cache; the view mode still follows the query.
	lister.lastIDs = nil
	req = httptest.NewRequest(http.MethodGet, "/category/valves/products?view=grid", nil)
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleGetCategoryProducts(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.hits)
	assert.Nil(t, lister.lastIDs, "cache hit must not query the repositories")

	var got Listing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "grid", got.ViewMode)
	assert.Equal(t, "BV-100", got.Products[0].SKU)
}

func TestListingCacheKeyFloorsPage(t *testing.T) {
	lister := &MockLister{Page: fixturePage()}
	store := newMapStore()
	h := NewCatalogHandler(fixtureCategories(), lister, store)

	req := httptest.NewRequest(http.MethodGet, "/category/valves/products?page=-3", nil)
	req.SetPathValue("slug", "valves")
	h.HandleGetCategoryProducts(httptest.NewRecorder(), req)
	assert.Equal(t, 1, store.sets)

	// page=1 resolves to the same entry instead of caching a duplicate.
	req = httptest.NewRequest(http.MethodGet, "/category/valves/products?page=1", nil)
	req.SetPathValue("slug", "valves")
	h.HandleGetCategoryProducts(httptest.NewRecorder(), req)
	assert.Equal(t, 1, store.hits)
	assert.Equal(t, 1, store.sets)
}

func TestHandleCreateCategory(t *testing.T) {
	categories := fixtureCategories()
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	body := strings.NewReader(`{"name":"Fittings","slug":"fittings","meta_keywords":"fittings"}`)
	req := httptest.NewRequest(http.MethodPost, "/categories", body)
	w := httptest.NewRecorder()
	h.HandleCreateCategory(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, categories.created)
	assert.Equal(t, "Fittings", categories.created.Name)
	assert.Nil(t, categories.created.ParentID)
}

func TestHandleCreateCategoryValidation(t *testing.T) {
	h := NewCatalogHandler(fixtureCategories(), &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"X"}`))
	w := httptest.NewRecorder()
	h.HandleCreateCategory(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{not json`))
	w = httptest.NewRecorder()
	h.HandleCreateCategory(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreateCategoryInvalidParent(t *testing.T) {
	categories := fixtureCategories()
	categories.CreateErr = tree.ErrInvalidHierarchy
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	body := strings.NewReader(`{"name":"X","slug":"x","parent_id":99}`)
	req := httptest.NewRequest(http.MethodPost, "/categories", body)
	w := httptest.NewRecorder()
	h.HandleCreateCategory(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMoveCategory(t *testing.T) {
	categories := fixtureCategories()
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	body := strings.NewReader(`{"parent_id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/category/ball-valves/move", body)
	req.SetPathValue("slug", "ball-valves")
	w := httptest.NewRecorder()
	h.HandleMoveCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(2), categories.movedID)
	require.NotNil(t, categories.movedParent)
	assert.Equal(t, uint(1), *categories.movedParent)
}

func TestHandleMoveCategoryInvalid(t *testing.T) {
	categories := fixtureCategories()
	categories.MoveErr = tree.ErrInvalidHierarchy
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodPost, "/category/valves/move", strings.NewReader(`{"parent_id":2}`))
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleMoveCategory(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteCategory(t *testing.T) {
	categories := fixtureCategories()
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodDelete, "/category/valves", nil)
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleDeleteCategory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(1), categories.deletedID)
}

func TestHandleDeleteCategoryProtected(t *testing.T) {
	categories := fixtureCategories()
	categories.DeleteErr = models.ErrProtectedReference
	h := NewCatalogHandler(categories, &MockLister{}, cache.Noop{})

	req := httptest.NewRequest(http.MethodDelete, "/category/valves", nil)
	req.SetPathValue("slug", "valves")
	w := httptest.NewRecorder()
	h.HandleDeleteCategory(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
