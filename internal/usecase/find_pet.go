package usecase

import (
	"context"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

type petPath struct {
	Path pet.Identity
}

// FindPet creates usecase interactor.
func FindPet(deps interface {
	PetFinder() pet.Finder
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(petPath), new(pet.Entity), func(ctx context.Context, input, output interface{}) error {
		var (
			in  = input.(*petPath)
			out = output.(*pet.Entity)
			err error
		)

		*out, err = deps.PetFinder().FindByID(ctx, in.Path)

		return err
	})

	u.SetName("findPet")
	u.SetTitle("Find pet by ID")
	u.SetExpectedErrors(status.NotFound)

	return u
}
