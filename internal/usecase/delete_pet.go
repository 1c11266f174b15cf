package usecase

import (
	"context"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

// DeletePet creates usecase interactor.
func DeletePet(deps interface {
	PetRemover() pet.Remover
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(petPath), nil, func(ctx context.Context, input, _ interface{}) error {
		return deps.PetRemover().Remove(ctx, input.(*petPath).Path)
	})

	u.SetName("deletePet")
	u.SetExpectedErrors(status.NotFound)

	return u
}
