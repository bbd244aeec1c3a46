package service

import (
	"context"
	"fmt"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// AuditService exposes the audit ledger read-only, to staff.
type AuditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns records matching f in insertion order.
func (s *AuditService) List(ctx context.Context, f repository.AuditFilter) ([]model.AuditRecord, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	records, err := s.repo.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	return records, nil
}

// Get returns one record. A record that exists but does not match f is
// reported as not found, the same as a list that filters it out.
func (s *AuditService) Get(ctx context.Context, id int64, f repository.AuditFilter) (*model.AuditRecord, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !matches(rec, f) {
		return nil, apperror.NotFound("audit record", id)
	}
	return rec, nil
}

func matches(rec *model.AuditRecord, f repository.AuditFilter) bool {
	if f.UserID != nil && (rec.UserID == nil || *rec.UserID != *f.UserID) {
		return false
	}
	if f.Action != "" && rec.Action != f.Action {
		return false
	}
	if f.ModelName != "" && rec.ModelName != f.ModelName {
		return false
	}
	return true
}
