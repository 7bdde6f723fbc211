package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chartmerge/chartmerge/pkg/pagination"
)

const defaultSearchLimit = 50

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, accountID, id uuid.UUID) (*HealthRecord, error) {
	return s.repo.GetByID(ctx, accountID, id)
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID, f ListFilter, p pagination.Params) (*pagination.Response, error) {
	// Record types are stored lowercase, a lowercased resource kind at worst.
	f.RecordType = strings.ToLower(strings.TrimSpace(f.RecordType))
	items, total, err := s.repo.List(ctx, accountID, f, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(items, total, p), nil
}

func (s *Service) Search(ctx context.Context, accountID uuid.UUID, query string, limit int) ([]*HealthRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return s.repo.Search(ctx, accountID, query, limit)
}

func (s *Service) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, accountID, id)
}
