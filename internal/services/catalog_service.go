package services

import (
	"encoding/base64"
	"errors"
	"fmt"

	"saboraoclique/internal/domain"
	"saboraoclique/internal/metrics"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/validate"
)

var ErrDuplicateID = errors.New("an item with this id already exists")

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) GetCategory(id string) (domain.Category, error) {
	return s.Cats.Get(id)
}

// ListProducts returns every product when categoryIDs is empty.
func (s *CatalogService) ListProducts(categoryIDs []string) ([]domain.Product, error) {
	return s.Prods.List(categoryIDs)
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) NextCategoryID() (string, error) {
	n, err := s.Cats.Count()
	if err != nil {
		return "", err
	}
	return domain.SequentialID(domain.CategoryPrefix, n), nil
}

func (s *CatalogService) NextProductID() (string, error) {
	n, err := s.Prods.Count()
	if err != nil {
		return "", err
	}
	return domain.SequentialID(domain.ProductPrefix, n), nil
}

// CategoryInput is the raw admin form.
type CategoryInput struct {
	ID   string
	Name string
}

func (in CategoryInput) validate() (domain.Category, error) {
	id, ok := validate.ID(in.ID)
	if !ok {
		return domain.Category{}, &validate.FieldError{Field: "id", Msg: "was not generated"}
	}
	name, err := validate.Name(in.Name)
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: id, Name: name}, nil
}

func (s *CatalogService) CreateCategory(in CategoryInput) (domain.Category, error) {
	c, err := in.validate()
	if err != nil {
		return c, err
	}
	exists, err := s.Cats.Exists(c.ID)
	if err != nil {
		return c, err
	}
	if exists {
		return c, fmt.Errorf("category %s: %w", c.ID, ErrDuplicateID)
	}
	if err := s.Cats.Create(c); err != nil {
		return c, err
	}
	metrics.CatalogOperations.WithLabelValues("category", "create").Inc()
	return c, nil
}

func (s *CatalogService) UpdateCategory(in CategoryInput) (domain.Category, error) {
	c, err := in.validate()
	if err != nil {
		return c, err
	}
	if err := s.Cats.Update(c); err != nil {
		return c, err
	}
	metrics.CatalogOperations.WithLabelValues("category", "update").Inc()
	return c, nil
}

// DeleteCategory leaves products that reference id untouched.
func (s *CatalogService) DeleteCategory(id string) error {
	if err := s.Cats.Delete(id); err != nil {
		return err
	}
	metrics.CatalogOperations.WithLabelValues("category", "delete").Inc()
	return nil
}

// ProductInput is the raw admin form. Image holds raw bytes of a new upload;
// nil keeps the stored image on update.
type ProductInput struct {
	ID          string
	Name        string
	Description string
	Price       string
	CategoryID  string
	Image       []byte
	RemoveImage bool
}

func (in ProductInput) validate() (domain.Product, error) {
	id, ok := validate.ID(in.ID)
	if !ok {
		return domain.Product{}, &validate.FieldError{Field: "id", Msg: "was not generated"}
	}
	name, err := validate.Name(in.Name)
	if err != nil {
		return domain.Product{}, err
	}
	desc, err := validate.Description(in.Description)
	if err != nil {
		return domain.Product{}, err
	}
	price, err := validate.Price(in.Price)
	if err != nil {
		return domain.Product{}, err
	}
	cat, err := validate.Category(in.CategoryID)
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          id,
		Name:        name,
		Description: desc,
		Price:       price.InexactFloat64(),
		CategoryID:  cat,
	}
	if len(in.Image) > 0 {
		p.Image = base64.StdEncoding.EncodeToString(in.Image)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(in ProductInput) (domain.Product, error) {
	p, err := in.validate()
	if err != nil {
		return p, err
	}
	exists, err := s.Prods.Exists(p.ID)
	if err != nil {
		return p, err
	}
	if exists {
		return p, fmt.Errorf("product %s: %w", p.ID, ErrDuplicateID)
	}
	if err := s.Prods.Create(p); err != nil {
		return p, err
	}
	metrics.CatalogOperations.WithLabelValues("product", "create").Inc()
	return p, nil
}

func (s *CatalogService) UpdateProduct(in ProductInput) (domain.Product, error) {
	p, err := in.validate()
	if err != nil {
		return p, err
	}
	if p.Image == "" && !in.RemoveImage {
		cur, err := s.Prods.Image(p.ID)
		if err != nil {
			return p, err
		}
		p.Image = cur
	}
	if err := s.Prods.Update(p); err != nil {
		return p, err
	}
	metrics.CatalogOperations.WithLabelValues("product", "update").Inc()
	return p, nil
}

func (s *CatalogService) DeleteProduct(id string) error {
	if err := s.Prods.Delete(id); err != nil {
		return err
	}
	metrics.CatalogOperations.WithLabelValues("product", "delete").Inc()
	return nil
}

// ProductImage returns the decoded image bytes, or nil when there is none.
func (s *CatalogService) ProductImage(id string) ([]byte, error) {
	enc, err := s.Prods.Image(id)
	if err != nil || enc == "" {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(enc)
}
