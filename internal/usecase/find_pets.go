package usecase

import (
	"context"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
)

type findPetsInput struct {
	Query struct {
		Status pet.Status `json:"status,omitempty"`
		Tag    string     `json:"tag,omitempty" description:"Filter by tag."`
		Limit  int        `json:"limit" default:"20" minimum:"1" maximum:"100"`
	}
}

// FindPets creates usecase interactor.
func FindPets(deps interface {
	PetFinder() pet.Finder
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(findPetsInput), new([]pet.Entity), func(ctx context.Context, input, output interface{}) error {
		var (
			in  = input.(*findPetsInput)
			out = output.(*[]pet.Entity)
		)

		*out = deps.PetFinder().Find(ctx, pet.Filter{
			Status: in.Query.Status,
			Tag:    in.Query.Tag,
			Limit:  in.Query.Limit,
		})

		return nil
	})

	u.SetName("findPets")
	u.SetDescription("List pets in the store.")

	return u
}
