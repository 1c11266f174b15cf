package pet

import (
	"time"

	"github.com/swaggest/jsonschema-go"
)

// Status describes pet availability.
type Status string

// Available pet statuses.
const (
	Available = Status("available")
	Pending   = Status("pending")
	Sold      = Status("sold")
)

var _ jsonschema.Exposer = Status("")

// JSONSchema exposes Status JSON schema, implements jsonschema.Exposer.
func (Status) JSONSchema() (jsonschema.Schema, error) {
	s := jsonschema.Schema{}
	s.
		WithType(jsonschema.String.Type()).
		WithTitle("Pet Status").
		WithDescription("Availability of a pet in the store.").
		WithEnum(Available, Pending, Sold)

	return s, nil
}

// Identity identifies pet.
type Identity struct {
	ID int `json:"id"`
}

// Value is a pet value.
type Value struct {
	Name   string `json:"name" minLength:"1" required:"true"`
	Tag    string `json:"tag,omitempty" maxLength:"32"`
	Status Status `json:"status,omitempty"`
}

// Image describes uploaded pet photo.
type Image struct {
	Filename string `json:"filename"`
	Caption  string `json:"caption,omitempty"`
	Size     int64  `json:"size"`
}

// Entity is an identified pet entity.
type Entity struct {
	Identity
	Value
	Images    []Image   `json:"images,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
