package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
)

// petsExport is a list of pets in JSON or CSV format.
type petsExport struct {
	rest.Union
}

func (petsExport) JSONSchemaOneOf() []interface{} {
	return []interface{}{[]pet.Entity{}, petsTable(nil)}
}

// petsTable is a CSV rendition of pets list.
type petsTable []pet.Entity

func (petsTable) OpenAPIExtra() rest.OpenAPIExtra {
	return rest.OpenAPIExtra{
		ContentType:   "text/csv",
		ContentSchema: openapi3.NewStringSchema().WithFormat("csv"),
	}
}

// MarshalText renders CSV table with a header row.
func (t petsTable) MarshalText() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := csv.NewWriter(buf)

	if err := w.Write([]string{"id", "name", "tag", "status"}); err != nil {
		return nil, err
	}

	for _, p := range t {
		if err := w.Write([]string{strconv.Itoa(p.ID), p.Name, p.Tag, string(p.Status)}); err != nil {
			return nil, err
		}
	}

	w.Flush()

	return buf.Bytes(), w.Error()
}

type exportPetsInput struct {
	Query struct {
		Format string `json:"format" enum:"json,csv" default:"json"`
	}
}

// ExportPets creates usecase interactor.
func ExportPets(deps interface {
	PetFinder() pet.Finder
}) usecase.IOInteractor {
	u := usecase.NewIOI(new(exportPetsInput), new(petsExport), func(ctx context.Context, input, output interface{}) error {
		var (
			in   = input.(*exportPetsInput)
			out  = output.(*petsExport)
			pets = deps.PetFinder().Find(ctx, pet.Filter{})
		)

		if in.Query.Format == "csv" {
			out.SetUnionValue("text/csv", petsTable(pets))
		} else {
			out.SetUnionValue("application/json", pets)
		}

		return nil
	})

	u.SetName("exportPets")
	u.SetDescription("Export all pets as JSON or CSV.")

	return u
}
