package service

import (
	"context"

	"github.com/octobees/directory-scraper/internal/dto"
	"github.com/octobees/directory-scraper/internal/entity"
	"github.com/octobees/directory-scraper/internal/repository"
)

// BusinessesService exposes read operations for the listings catalogue.
type BusinessesService struct {
	repo repository.BusinessesRepository
}

// NewBusinessesService creates a new instance of BusinessesService.
func NewBusinessesService(repo repository.BusinessesRepository) *BusinessesService {
	return &BusinessesService{repo: repo}
}

// ListBusinesses returns stored listings respecting pagination defaults.
func (s *BusinessesService) ListBusinesses(ctx context.Context, filter dto.ListFilter) ([]entity.Business, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}
