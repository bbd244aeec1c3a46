package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// UserService manages accounts. Creating and removing users is staff-only;
// reading them is public, but inactive users are visible to staff alone.
type UserService struct {
	users     repository.UserRepository
	snippets  repository.SnippetRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		snippets:  snippets,
		passwords: passwords,
		logger:    logger,
	}
}

// CreateUserInput is what a staff member supplies to create an account.
type CreateUserInput struct {
	Username string
	Password string
	IsStaff  bool
}

// Create adds an active account. Staff only.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	caller, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if !ValidUsername(in.Username) {
		return nil, apperror.ValidationFailed("username",
			"username may contain only letters, digits and @/./+/-/_ characters (150 at most)")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperror.ValidationFailed("password", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		PasswordHash: hash,
		IsStaff:      in.IsStaff,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	user.Snippets = []int64{}

	s.logger.InfoContext(ctx, "user created",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
		slog.String("by", caller.Username),
	)
	return user, nil
}

// SoftDelete deactivates the named account. The row stays so historical
// references remain valid. Staff only; nobody can deactivate themselves.
func (s *UserService) SoftDelete(ctx context.Context, username string) (*model.User, error) {
	caller, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if !caller.IsSystem() && username == caller.Username {
		return nil, apperror.Forbidden("you cannot delete your own account")
	}

	user, err := s.users.Deactivate(ctx, username)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user deactivated",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
		slog.String("by", caller.Username),
	)
	return user, nil
}

// Purge removes an account permanently, together with its snippets.
// Staff only. Not exposed over HTTP; the admin CLI uses it.
func (s *UserService) Purge(ctx context.Context, username string) error {
	caller, err := requireStaff(ctx)
	if err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if !caller.IsSystem() && user.ID == caller.UserID {
		return apperror.Forbidden("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("purging user: %w", err)
	}

	s.logger.InfoContext(ctx, "user purged",
		slog.Int64("id", user.ID),
		slog.String("username", user.Username),
		slog.String("by", caller.Username),
	)
	return nil
}

// List returns users with the ids of their snippets. showInactive only takes
// effect for staff callers.
func (s *UserService) List(ctx context.Context, showInactive bool) ([]model.User, error) {
	users, err := s.users.List(ctx, showInactive && isStaffCaller(ctx))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	for i := range users {
		if err := s.attachSnippets(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Get returns one user. An inactive user looks missing unless a staff
// caller asks for inactive users.
func (s *UserService) Get(ctx context.Context, id int64, showInactive bool) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive && !(showInactive && isStaffCaller(ctx)) {
		return nil, apperror.NotFound("user", id)
	}
	if err := s.attachSnippets(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) attachSnippets(ctx context.Context, user *model.User) error {
	ids, err := s.snippets.ListIDsByOwner(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("loading snippets of user %d: %w", user.ID, err)
	}
	user.Snippets = ids
	return nil
}
