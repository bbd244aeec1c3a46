package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/snippets-api/internal/actor"
	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/highlight"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// SnippetService handles business logic for code snippets.
//
// Anyone may read. Any authenticated user may create, and becomes the
// owner. Only the owner or a staff member may change or delete.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		logger: logger,
	}
}

// SnippetInput holds the client-editable fields. Empty Language or Style
// fall back to the defaults.
type SnippetInput struct {
	Title    string
	Code     string
	Linenos  bool
	Language string
	Style    string
}

// normalise validates in and fills in defaults. Lengths are counted in
// characters, the same unit the handler validator uses.
func (in *SnippetInput) normalise() error {
	in.Title = strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return tooLong("title", MaxTitleLength)
	}
	if strings.TrimSpace(in.Code) == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	if utf8.RuneCountInString(in.Code) > MaxCodeLength {
		return tooLong("code", MaxCodeLength)
	}

	if in.Language = strings.TrimSpace(in.Language); in.Language == "" {
		in.Language = model.DefaultLanguage
	}
	if !highlight.ValidLanguage(in.Language) {
		return apperror.ValidationFailed("language", fmt.Sprintf("%q is not a valid choice", in.Language))
	}
	if in.Style = strings.TrimSpace(in.Style); in.Style == "" {
		in.Style = model.DefaultStyle
	}
	if !highlight.ValidStyle(in.Style) {
		return apperror.ValidationFailed("style", fmt.Sprintf("%q is not a valid choice", in.Style))
	}
	return nil
}

// apply copies in onto snippet and re-renders the highlighted page.
func (in SnippetInput) apply(snippet *model.Snippet) error {
	page, err := highlight.Render(in.Code, highlight.Options{
		Language: in.Language,
		Style:    in.Style,
		Linenos:  in.Linenos,
	})
	if err != nil {
		return fmt.Errorf("rendering snippet: %w", err)
	}
	snippet.Title = in.Title
	snippet.Code = in.Code
	snippet.Linenos = in.Linenos
	snippet.Language = in.Language
	snippet.Style = in.Style
	snippet.Highlighted = page
	return nil
}

// Create validates and saves a new snippet owned by the caller.
func (s *SnippetService) Create(ctx context.Context, in SnippetInput) (*model.Snippet, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	if caller.IsSystem() {
		return nil, apperror.Forbidden("snippets must be owned by a user")
	}
	if err := in.normalise(); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{OwnerID: caller.UserID}
	if err := in.apply(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.ErrorContext(ctx, "failed to create snippet",
			slog.String("title", snippet.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.InfoContext(ctx, "snippet created",
		slog.Int64("id", snippet.ID),
		slog.String("owner", snippet.Owner),
	)
	return snippet, nil
}

// GetByID retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	return s.repo.GetByID(ctx, id)
}

// Highlight returns the rendered HTML page of a snippet.
func (s *SnippetService) Highlight(ctx context.Context, id int64) (string, error) {
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return snippet.Highlighted, nil
}

// List retrieves snippets with pagination; limit is clamped to 1-100.
func (s *SnippetService) List(ctx context.Context, limit, offset int) ([]model.Snippet, error) {
	limit, offset = clampPage(limit, offset)

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update replaces the editable fields of a snippet.
//
// STRATEGY: "Fetch then update"
// The fetch confirms the snippet exists and tells us its owner, which the
// permission check needs before anything is written.
func (s *SnippetService) Update(ctx context.Context, id int64, in SnippetInput) (*model.Snippet, error) {
	snippet, err := s.loadForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalise(); err != nil {
		return nil, err
	}
	if err := in.apply(snippet); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.ErrorContext(ctx, "failed to update snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.InfoContext(ctx, "snippet updated", slog.Int64("id", snippet.ID))
	return snippet, nil
}

// Delete removes a snippet by its ID.
func (s *SnippetService) Delete(ctx context.Context, id int64) error {
	if _, err := s.loadForWrite(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "snippet deleted", slog.Int64("id", id))
	return nil
}

// loadForWrite fetches a snippet and checks the caller may modify it.
func (s *SnippetService) loadForWrite(ctx context.Context, id int64) (*model.Snippet, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return nil, err
	}
	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(caller, snippet) {
		return nil, apperror.Forbidden("only the owner or staff may modify this snippet")
	}
	return snippet, nil
}

func canModify(a actor.Actor, snippet *model.Snippet) bool {
	return a.IsSystem() || a.IsStaff || a.UserID == snippet.OwnerID
}
