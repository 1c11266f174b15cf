// Package pet describes pet store domain.
package pet

import "context"

// Filter narrows pets listing.
type Filter struct {
	Status Status
	Tag    string
	Limit  int
}

// Creator creates pets.
type Creator interface {
	Create(context.Context, Value) (Entity, error)
}

// Updater updates pets.
type Updater interface {
	Update(context.Context, Identity, Value) error
	AddImage(context.Context, Identity, Image) (Entity, error)
}

// Remover deletes pets.
type Remover interface {
	Remove(context.Context, Identity) error
}

// Finder finds pets.
type Finder interface {
	Find(context.Context, Filter) []Entity
	FindByID(context.Context, Identity) (Entity, error)
}
