// Package usecase defines pet store use cases.
package usecase

import (
	"context"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

type createPetInput struct {
	Body pet.Value
}

// CreatePet creates usecase interactor.
func CreatePet(deps interface {
	PetCreator() pet.Creator
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(createPetInput), new(pet.Entity), func(ctx context.Context, input, output interface{}) error {
		var (
			in  = input.(*createPetInput)
			out = output.(*pet.Entity)
			err error
		)

		*out, err = deps.PetCreator().Create(ctx, in.Body)

		return err
	})

	u.SetName("createPet")
	u.SetDescription("Add a new pet to the store.")
	u.SetExpectedErrors(status.AlreadyExists)

	return u
}
