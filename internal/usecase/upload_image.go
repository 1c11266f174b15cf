package usecase

import (
	"context"
	"mime/multipart"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

type uploadImageInput struct {
	Path pet.Identity
	Form struct {
		Caption string                `json:"caption,omitempty" maxLength:"140"`
		File    *multipart.FileHeader `json:"file" required:"true" description:"Image of a pet."`
	}
}

// UploadImage creates usecase interactor.
func UploadImage(deps interface {
	PetUpdater() pet.Updater
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(uploadImageInput), new(pet.Entity), func(ctx context.Context, input, output interface{}) error {
		var (
			in  = input.(*uploadImageInput)
			out = output.(*pet.Entity)
			err error
		)

		*out, err = deps.PetUpdater().AddImage(ctx, in.Path, pet.Image{
			Filename: in.Form.File.Filename,
			Caption:  in.Form.Caption,
			Size:     in.Form.File.Size,
		})

		return err
	})

	u.SetName("uploadImage")
	u.SetDescription("Upload pet photo.")
	u.SetExpectedErrors(status.NotFound)

	return u
}
