// Package repository implements domain services with repository.
package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/swaggest/rest-openapi/internal/domain/pet"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

// Pet is an in-memory pet repository.
type Pet struct {
	mu     sync.RWMutex
	lastID int
	list   map[pet.Identity]pet.Entity
}

// PetCreator is a service provider.
func (pr *Pet) PetCreator() pet.Creator {
	return pr
}

// Create creates a new pet.
func (pr *Pet) Create(_ context.Context, value pet.Value) (pet.Entity, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for _, p := range pr.list {
		if p.Name == value.Name {
			return pet.Entity{}, usecase.Error{
				StatusCode: status.AlreadyExists,
				Context: map[string]interface{}{
					"pet": p.Identity,
				},
				Value: errors.New("pet with same name already exists"),
			}
		}
	}

	if value.Status == "" {
		value.Status = pet.Available
	}

	pr.lastID++

	if pr.list == nil {
		pr.list = make(map[pet.Identity]pet.Entity, 1)
	}

	p := pet.Entity{}
	p.Value = value
	p.ID = pr.lastID
	p.CreatedAt = time.Now()
	pr.list[p.Identity] = p

	return p, nil
}

// PetUpdater is a service provider.
func (pr *Pet) PetUpdater() pet.Updater {
	return pr
}

// Update updates pet value by identity.
func (pr *Pet) Update(_ context.Context, identity pet.Identity, value pet.Value) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	p, found := pr.list[identity]
	if !found {
		return status.NotFound
	}

	if p.Status == pet.Sold {
		return status.Wrap(errors.New("pet is already sold"), status.FailedPrecondition)
	}

	if value.Status == "" {
		value.Status = p.Status
	}

	p.Value = value
	pr.list[identity] = p

	return nil
}

// AddImage attaches image to a pet.
func (pr *Pet) AddImage(_ context.Context, identity pet.Identity, image pet.Image) (pet.Entity, error) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	p, found := pr.list[identity]
	if !found {
		return pet.Entity{}, status.NotFound
	}

	p.Images = append(p.Images, image)
	pr.list[identity] = p

	return p, nil
}

// PetRemover is a service provider.
func (pr *Pet) PetRemover() pet.Remover {
	return pr
}

// Remove deletes pet by identity.
func (pr *Pet) Remove(_ context.Context, identity pet.Identity) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if _, found := pr.list[identity]; !found {
		return status.NotFound
	}

	delete(pr.list, identity)

	return nil
}

// PetFinder is a service provider.
func (pr *Pet) PetFinder() pet.Finder {
	return pr
}

// Find finds pets matching filter ordered by id.
func (pr *Pet) Find(_ context.Context, filter pet.Filter) []pet.Entity {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	result := make([]pet.Entity, 0, len(pr.list))

	for _, p := range pr.list {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}

		if filter.Tag != "" && p.Tag != filter.Tag {
			continue
		}

		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result
}

// FindByID finds pet by identity.
func (pr *Pet) FindByID(_ context.Context, identity pet.Identity) (pet.Entity, error) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	p, found := pr.list[identity]
	if !found {
		return pet.Entity{}, status.NotFound
	}

	return p, nil
}
