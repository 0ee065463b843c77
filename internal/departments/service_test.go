package departments

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/audit"
)

type memoryDeptRepo struct {
	depts   map[int64]*Department
	members map[int64]int
	nextID  int64
}

func newMemoryDeptRepo() *memoryDeptRepo {
	return &memoryDeptRepo{depts: make(map[int64]*Department), members: make(map[int64]int), nextID: 1}
}

func (r *memoryDeptRepo) List(ctx context.Context) ([]Department, error) {
	var out []Department
	for _, d := range r.depts {
		cp := *d
		cp.MemberCount = r.members[d.ID]
		out = append(out, cp)
	}
	return out, nil
}

func (r *memoryDeptRepo) Get(ctx context.Context, id int64) (*Department, error) {
	d, ok := r.depts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	cp.MemberCount = r.members[id]
	return &cp, nil
}

func (r *memoryDeptRepo) Create(ctx context.Context, d *Department) error {
	for _, existing := range r.depts {
		if strings.EqualFold(existing.Name, d.Name) {
			return ErrDuplicateName
		}
	}
	d.ID = r.nextID
	r.nextID++
	d.CreatedAt = time.Now()
	cp := *d
	r.depts[d.ID] = &cp
	return nil
}

func (r *memoryDeptRepo) Update(ctx context.Context, d *Department) error {
	if _, ok := r.depts[d.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.depts {
		if id != d.ID && strings.EqualFold(existing.Name, d.Name) {
			return ErrDuplicateName
		}
	}
	cp := *d
	r.depts[d.ID] = &cp
	return nil
}

func (r *memoryDeptRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.depts[id]; !ok {
		return ErrNotFound
	}
	delete(r.depts, id)
	return nil
}

func (r *memoryDeptRepo) MemberCount(ctx context.Context, id int64) (int, error) {
	return r.members[id], nil
}

type nopExecer struct{ count int }

func (e *nopExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.count++
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func newDeptService(repo *memoryDeptRepo) (*Service, *nopExecer) {
	exec := &nopExecer{}
	return NewService(slog.Default(), repo, audit.NewRecorder(exec)), exec
}

func TestCreateDepartment(t *testing.T) {
	repo := newMemoryDeptRepo()
	svc, exec := newDeptService(repo)

	d, err := svc.Create(context.Background(), Input{Name: "  Engineering ", ActorID: 1, ActorName: "Root Admin"})
	require.NoError(t, err)
	require.Equal(t, "Engineering", d.Name)
	require.NotZero(t, d.ID)
	require.Equal(t, 1, exec.count)
}

func TestCreateDuplicateName(t *testing.T) {
	repo := newMemoryDeptRepo()
	svc, _ := newDeptService(repo)

	_, err := svc.Create(context.Background(), Input{Name: "Engineering", ActorID: 1})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), Input{Name: "engineering", ActorID: 1})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestCreateBlankName(t *testing.T) {
	svc, _ := newDeptService(newMemoryDeptRepo())
	_, err := svc.Create(context.Background(), Input{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestDeleteBlockedByMembers(t *testing.T) {
	repo := newMemoryDeptRepo()
	svc, _ := newDeptService(repo)

	d, err := svc.Create(context.Background(), Input{Name: "Operations", ActorID: 1})
	require.NoError(t, err)
	repo.members[d.ID] = 3

	err = svc.Delete(context.Background(), d.ID, Input{ActorID: 1})
	require.ErrorIs(t, err, ErrHasMembers)

	repo.members[d.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), d.ID, Input{ActorID: 1}))
	_, err = svc.Get(context.Background(), d.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDepartment(t *testing.T) {
	repo := newMemoryDeptRepo()
	svc, _ := newDeptService(repo)

	d, err := svc.Create(context.Background(), Input{Name: "Ops", ActorID: 1})
	require.NoError(t, err)

	manager := int64(9)
	updated, err := svc.Update(context.Background(), d.ID, Input{Name: "Operations", Description: "field ops", ManagerID: &manager, ActorID: 1})
	require.NoError(t, err)
	require.Equal(t, "Operations", updated.Name)
	require.Equal(t, manager, *updated.ManagerID)
}
