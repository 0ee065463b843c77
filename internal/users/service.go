package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/shared"
)

// Service implements profile administration.
type Service struct {
	logger  *slog.Logger
	repo    Repository
	auditor *audit.Recorder
}

// NewService constructs the profile service.
func NewService(logger *slog.Logger, repo Repository, auditor *audit.Recorder) *Service {
	return &Service{logger: logger, repo: repo, auditor: auditor}
}

// List returns the full directory.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.repo.List(ctx)
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new employee with a hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Profile, error) {
	if !validRole(in.Role) {
		return nil, ErrInvalidRole
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &Profile{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         in.Role,
		DepartmentID: in.DepartmentID,
	}
	if err := s.repo.Create(ctx, p, hash); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in.ActorID, in.ActorName, "user.create", p.ID,
		fmt.Sprintf("created profile %s (%s)", p.FullName, p.Role), nil)
	return p, nil
}

// Update applies administrative changes. Role changes are refused on the
// actor's own profile so the last admin cannot lock everyone out.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Profile, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) != "" {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Role != nil && *in.Role != p.Role {
		if !validRole(*in.Role) {
			return nil, ErrInvalidRole
		}
		if id == in.ActorID {
			return nil, ErrSelfDemotion
		}
		meta["role_before"] = p.Role
		meta["role_after"] = *in.Role
		p.Role = *in.Role
	}
	if in.DepartmentID != nil {
		p.DepartmentID = in.DepartmentID
	}
	if in.IsActive != nil && *in.IsActive != p.IsActive {
		meta["is_active"] = *in.IsActive
		p.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in.ActorID, in.ActorName, "user.update", id,
		fmt.Sprintf("updated profile %s", p.FullName), meta)
	return p, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, actorName, action string, id int64, details string, meta map[string]any) {
	err := s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		ActorName:  actorName,
		Action:     action,
		EntityType: "profile",
		EntityID:   fmt.Sprintf("%d", id),
		Details:    details,
		Metadata:   meta,
	})
	if err != nil {
		s.logger.Error("audit profile change", slog.String("action", action), slog.Any("error", err))
	}
}

func validRole(role string) bool {
	_, ok := shared.RolePermissions[role]
	return ok
}
