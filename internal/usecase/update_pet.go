package usecase

import (
	"context"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

type updatePetInput struct {
	Path pet.Identity
	Body pet.Value
}

// UpdatePet creates usecase interactor.
func UpdatePet(deps interface {
	PetUpdater() pet.Updater
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(updatePetInput), nil, func(ctx context.Context, input, _ interface{}) error {
		in := input.(*updatePetInput)

		return deps.PetUpdater().Update(ctx, in.Path, in.Body)
	})

	u.SetName("updatePet")
	u.SetDescription("Update pet details.")
	u.SetExpectedErrors(status.NotFound, status.FailedPrecondition)

	return u
}
