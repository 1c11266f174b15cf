// Package service defines application resources.
package service

import "github.com/swaggest/rest-openapi/internal/domain/pet"

// PetCreatorProvider is a service locator provider.
type PetCreatorProvider interface {
	PetCreator() pet.Creator
}

// PetUpdaterProvider is a service locator provider.
type PetUpdaterProvider interface {
	PetUpdater() pet.Updater
}

// PetRemoverProvider is a service locator provider.
type PetRemoverProvider interface {
	PetRemover() pet.Remover
}

// PetFinderProvider is a service locator provider.
type PetFinderProvider interface {
	PetFinder() pet.Finder
}
