package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saboraoclique/internal/domain"
	"saboraoclique/internal/repos"
	"saboraoclique/internal/services"
	"saboraoclique/internal/validate"
)

func newCatalog(t *testing.T) *services.CatalogService {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db))
}

func TestNextIDsFollowRowCount(t *testing.T) {
	s := newCatalog(t)

	id, err := s.NextCategoryID()
	require.NoError(t, err)
	assert.Equal(t, "CAT01", id)
	_, err = s.CreateCategory(services.CategoryInput{ID: id, Name: "Bolos"})
	require.NoError(t, err)

	id, err = s.NextCategoryID()
	require.NoError(t, err)
	assert.Equal(t, "CAT02", id)

	id, err = s.NextProductID()
	require.NoError(t, err)
	assert.Equal(t, "PROD01", id)
	_, err = s.CreateProduct(services.ProductInput{
		ID: id, Name: "Bolo de Fubá", Description: "Fatia", Price: "8,50", CategoryID: "CAT01",
	})
	require.NoError(t, err)

	id, err = s.NextProductID()
	require.NoError(t, err)
	assert.Equal(t, "PROD02", id)
}

func TestCreateDuplicateIDRejected(t *testing.T) {
	s := newCatalog(t)
	_, err := s.CreateCategory(services.CategoryInput{ID: "CAT01", Name: "Bolos"})
	require.NoError(t, err)

	_, err = s.CreateCategory(services.CategoryInput{ID: "CAT01", Name: "Doces"})
	require.ErrorIs(t, err, services.ErrDuplicateID)

	c, err := s.GetCategory("CAT01")
	require.NoError(t, err)
	assert.Equal(t, "Bolos", c.Name)
}

func TestCreateProductValidationWritesNothing(t *testing.T) {
	s := newCatalog(t)
	cases := map[string]services.ProductInput{
		"no name":     {ID: "PROD01", Description: "d", Price: "1", CategoryID: "CAT01"},
		"no desc":     {ID: "PROD01", Name: "n", Price: "1", CategoryID: "CAT01"},
		"bad price":   {ID: "PROD01", Name: "n", Description: "d", Price: "abc", CategoryID: "CAT01"},
		"no category": {ID: "PROD01", Name: "n", Description: "d", Price: "1"},
		"no id":       {Name: "n", Description: "d", Price: "1", CategoryID: "CAT01"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.CreateProduct(in)
			var fe *validate.FieldError
			require.ErrorAs(t, err, &fe)

			list, err := s.ListProducts(nil)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestDeleteCategoryOrphansProducts(t *testing.T) {
	s := newCatalog(t)
	_, err := s.CreateCategory(services.CategoryInput{ID: "CAT01", Name: "Bolos"})
	require.NoError(t, err)
	_, err = s.CreateProduct(services.ProductInput{
		ID: "PROD01", Name: "Bolo", Description: "Inteiro", Price: "45", CategoryID: "CAT01",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory("CAT01"))

	p, err := s.GetProduct("PROD01")
	require.NoError(t, err)
	assert.Equal(t, "CAT01", p.CategoryID)
	assert.Equal(t, domain.Unknown, p.CategoryLabel())

	assert.ErrorIs(t, s.DeleteCategory("CAT01"), repos.ErrNotFound)
}

func TestUpdateProductImageKeepAndRemove(t *testing.T) {
	s := newCatalog(t)
	img := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	in := services.ProductInput{
		ID: "PROD01", Name: "Bolo", Description: "Inteiro", Price: "R$ 1.234,56", CategoryID: "CAT01", Image: img,
	}
	p, err := s.CreateProduct(in)
	require.NoError(t, err)
	assert.Equal(t, 1234.56, p.Price)

	in.Image = nil
	in.Name = "Bolo grande"
	_, err = s.UpdateProduct(in)
	require.NoError(t, err)

	got, err := s.ProductImage("PROD01")
	require.NoError(t, err)
	assert.Equal(t, img, got, "update without upload keeps the image")

	in.RemoveImage = true
	_, err = s.UpdateProduct(in)
	require.NoError(t, err)

	got, err = s.ProductImage("PROD01")
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err := s.GetProduct("PROD01")
	require.NoError(t, err)
	assert.Equal(t, "Bolo grande", stored.Name)
	assert.False(t, stored.HasImage())
}

func TestUpdateMissingProduct(t *testing.T) {
	s := newCatalog(t)
	_, err := s.UpdateProduct(services.ProductInput{
		ID: "PROD09", Name: "n", Description: "d", Price: "1", CategoryID: "CAT01", Image: []byte{1},
	})
	assert.ErrorIs(t, err, repos.ErrNotFound)
}

func TestListProductsByCategories(t *testing.T) {
	s := newCatalog(t)
	for _, c := range []services.CategoryInput{{ID: "CAT01", Name: "Bolos"}, {ID: "CAT02", Name: "Doces"}, {ID: "CAT03", Name: "Salgados"}} {
		_, err := s.CreateCategory(c)
		require.NoError(t, err)
	}
	for i, cat := range []string{"CAT01", "CAT02", "CAT03", "CAT02"} {
		_, err := s.CreateProduct(services.ProductInput{
			ID: domain.SequentialID(domain.ProductPrefix, i), Name: "p", Description: "d", Price: "1", CategoryID: cat,
		})
		require.NoError(t, err)
	}

	list, err := s.ListProducts([]string{"CAT02", "CAT03"})
	require.NoError(t, err)
	var ids []string
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"PROD02", "PROD03", "PROD04"}, ids)
}
