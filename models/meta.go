package models

import "github.com/magazix/catalog-service/meta"

// Meta implements meta.Provider.
func (c *Category) Meta() meta.Object {
	return meta.Object{
		Title:       meta.Title(c.MetaTitle, c.Name),
		Description: c.MetaDescription,
		Keywords:    meta.SplitKeywords(c.MetaKeywords),
		Image:       c.Image,
	}
}

// Meta implements meta.Provider.
func (t *ProductType) Meta() meta.Object {
	return meta.Object{
		Title:       meta.Title(t.MetaTitle, t.Name),
		Description: t.MetaDescription,
		Image:       t.Image,
	}
}

// Meta implements meta.Provider. The image is the gallery's main image;
// Images must have been loaded for it to be derived.
func (p *Product) Meta() meta.Object {
	object := meta.Object{
		Title:       meta.Title(p.MetaTitle, p.Name),
		Description: p.MetaDescription,
	}
	if main := p.MainImage(); main != nil {
		object.Image = main.Image
	}
	return object
}
