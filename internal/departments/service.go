package departments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/timewise-hq/timewise/internal/audit"
)

// Service implements department administration.
type Service struct {
	logger  *slog.Logger
	repo    Repository
	auditor *audit.Recorder
}

// NewService constructs the department service.
func NewService(logger *slog.Logger, repo Repository, auditor *audit.Recorder) *Service {
	return &Service{logger: logger, repo: repo, auditor: auditor}
}

// List returns all departments with live member counts.
func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

// Get returns one department.
func (s *Service) Get(ctx context.Context, id int64) (*Department, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a department with a unique name.
func (s *Service) Create(ctx context.Context, in Input) (*Department, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	d := &Department{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		ManagerID:   in.ManagerID,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in, "department.create", d.ID, fmt.Sprintf("created department %q", d.Name))
	return d, nil
}

// Update renames or reassigns a department.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Department, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = name
	d.Description = strings.TrimSpace(in.Description)
	d.ManagerID = in.ManagerID
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, in, "department.update", id, fmt.Sprintf("updated department %q", d.Name))
	return d, nil
}

// Delete removes an empty department. Departments with active members are
// protected so profiles never point at a missing row.
func (s *Service) Delete(ctx context.Context, id int64, in Input) error {
	members, err := s.repo.MemberCount(ctx, id)
	if err != nil {
		return err
	}
	if members > 0 {
		return ErrHasMembers
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, in, "department.delete", id, "deleted department")
	return nil
}

func (s *Service) recordAudit(ctx context.Context, in Input, action string, id int64, details string) {
	err := s.auditor.Record(ctx, audit.Entry{
		ActorID:    in.ActorID,
		ActorName:  in.ActorName,
		Action:     action,
		EntityType: "department",
		EntityID:   fmt.Sprintf("%d", id),
		Details:    details,
	})
	if err != nil {
		s.logger.Error("audit department change", slog.String("action", action), slog.Any("error", err))
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 120 {
		return "", ErrInvalidName
	}
	return name, nil
}
