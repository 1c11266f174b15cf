package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/rest-openapi/internal/infra/repository"
	"github.com/swaggest/usecase/status"
)

func TestPet(t *testing.T) {
	ctx := context.Background()
	r := repository.Pet{}

	rex, err := r.Create(ctx, pet.Value{Name: "Rex", Tag: "dog"})
	require.NoError(t, err)
	assert.Equal(t, 1, rex.ID)
	assert.Equal(t, pet.Available, rex.Status)

	_, err = r.Create(ctx, pet.Value{Name: "Rex"})
	assert.EqualError(t, err, "already exists: pet with same name already exists")

	tom, err := r.Create(ctx, pet.Value{Name: "Tom", Tag: "cat", Status: pet.Pending})
	require.NoError(t, err)

	assert.Len(t, r.Find(ctx, pet.Filter{}), 2)
	assert.Equal(t, []pet.Entity{tom}, r.Find(ctx, pet.Filter{Status: pet.Pending}))
	assert.Equal(t, []pet.Entity{rex}, r.Find(ctx, pet.Filter{Tag: "dog"}))
	assert.Equal(t, []pet.Entity{rex}, r.Find(ctx, pet.Filter{Limit: 1}))

	require.NoError(t, r.Update(ctx, rex.Identity, pet.Value{Name: "Rex", Status: pet.Sold}))
	assert.EqualError(t, r.Update(ctx, rex.Identity, pet.Value{Name: "Max"}), "failed precondition: pet is already sold")
	assert.ErrorIs(t, r.Update(ctx, pet.Identity{ID: 9}, pet.Value{Name: "Max"}), status.NotFound)

	tom, err = r.AddImage(ctx, tom.Identity, pet.Image{Filename: "tom.jpg", Size: 4})
	require.NoError(t, err)
	assert.Len(t, tom.Images, 1)

	require.NoError(t, r.Remove(ctx, tom.Identity))
	assert.ErrorIs(t, r.Remove(ctx, tom.Identity), status.NotFound)

	_, err = r.FindByID(ctx, tom.Identity)
	assert.ErrorIs(t, err, status.NotFound)
}
