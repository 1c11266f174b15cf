// Package infra wires application resources.
package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/swaggest/rest-openapi/internal/infra/repository"
	"github.com/swaggest/rest-openapi/internal/infra/service"
	"go.uber.org/zap"
)

// NewServiceLocator initializes application resources.
func NewServiceLocator(cfg service.Config, logger *zap.Logger) *service.Locator {
	if logger == nil {
		logger = zap.NewNop()
	}

	l := service.Locator{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	l.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	petRepository := repository.Pet{}

	l.PetCreatorProvider = &petRepository
	l.PetUpdaterProvider = &petRepository
	l.PetRemoverProvider = &petRepository
	l.PetFinderProvider = &petRepository

	return &l
}
