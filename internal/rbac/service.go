package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/timewise-hq/timewise/internal/shared"
)

// Service resolves effective permissions for users from their profile role.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs the RBAC service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Resolve loads the principal for a user id.
func (s *Service) Resolve(ctx context.Context, userID int64) (Principal, error) {
	var name, role string
	var active bool
	err := s.pool.QueryRow(ctx, `SELECT full_name, role, is_active FROM profiles WHERE id = $1`, userID).Scan(&name, &role, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, shared.ErrNotFound
		}
		return Principal{}, fmt.Errorf("rbac: resolve principal: %w", err)
	}
	if !active {
		return Principal{}, shared.ErrNotFound
	}
	return Principal{ID: userID, Name: name, Role: role, Permissions: shared.RolePermissions[role]}, nil
}

// EffectivePermissions returns the permissions granted to a user.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	principal, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return principal.Permissions, nil
}
