package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Locator defines application services.
type Locator struct {
	Config Config

	Logger   *zap.Logger
	Registry *prometheus.Registry

	PetCreatorProvider
	PetUpdaterProvider
	PetRemoverProvider
	PetFinderProvider
}
