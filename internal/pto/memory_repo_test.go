package pto

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/notify"
)

// memoryRepo backs service tests without postgres. WithTx serialises writers
// and restores a snapshot on error, mirroring transaction rollback.
type memoryRepo struct {
	mu            sync.Mutex
	requests      map[uuid.UUID]*Request
	balances      map[int64]*Balance
	contacts      map[int64]Contact
	audits        []audit.Entry
	notifications []notify.Message
	nextBalanceID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		requests:      make(map[uuid.UUID]*Request),
		balances:      make(map[int64]*Balance),
		contacts:      make(map[int64]Contact),
		nextBalanceID: 1,
	}
}

func (r *memoryRepo) addContact(userID int64, name, email string, deptID *int64) {
	r.contacts[userID] = Contact{Name: name, Email: email, DepartmentID: deptID}
}

func (r *memoryRepo) setBalance(userID int64, balance, accrued, used float64) *Balance {
	b := &Balance{
		ID:           r.nextBalanceID,
		UserID:       userID,
		BalanceHours: balance,
		AccruedHours: accrued,
		UsedHours:    used,
		Version:      1,
		UpdatedAt:    time.Now(),
	}
	r.nextBalanceID++
	r.balances[userID] = b
	return b
}

func (r *memoryRepo) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID int64) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Request
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListPending(ctx context.Context, departmentID *int64) ([]PendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PendingRequest
	for _, req := range r.requests {
		if req.Status != StatusPending {
			continue
		}
		contact := r.contacts[req.UserID]
		if departmentID != nil {
			if contact.DepartmentID == nil || *contact.DepartmentID != *departmentID {
				continue
			}
		}
		out = append(out, PendingRequest{
			Request:      *req,
			UserName:     contact.Name,
			UserEmail:    contact.Email,
			DepartmentID: contact.DepartmentID,
		})
	}
	return out, nil
}

func (r *memoryRepo) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryRepo) EnsureBalance(ctx context.Context, userID int64, initialHours float64) (*Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.balances[userID]; ok {
		cp := *b
		return &cp, nil
	}
	b := &Balance{
		ID:           r.nextBalanceID,
		UserID:       userID,
		BalanceHours: initialHours,
		AccruedHours: initialHours,
		Version:      1,
		UpdatedAt:    time.Now(),
	}
	r.nextBalanceID++
	r.balances[userID] = b
	cp := *b
	return &cp, nil
}

func (r *memoryRepo) UserContact(ctx context.Context, userID int64) (*Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snapshot)
		return err
	}
	return nil
}

type repoState struct {
	requests      map[uuid.UUID]*Request
	balances      map[int64]*Balance
	audits        []audit.Entry
	notifications []notify.Message
}

func (r *memoryRepo) snapshot() repoState {
	st := repoState{
		requests:      make(map[uuid.UUID]*Request, len(r.requests)),
		balances:      make(map[int64]*Balance, len(r.balances)),
		audits:        append([]audit.Entry(nil), r.audits...),
		notifications: append([]notify.Message(nil), r.notifications...),
	}
	for id, req := range r.requests {
		cp := *req
		st.requests[id] = &cp
	}
	for id, b := range r.balances {
		cp := *b
		st.balances[id] = &cp
	}
	return st
}

func (r *memoryRepo) restore(st repoState) {
	r.requests = st.requests
	r.balances = st.balances
	r.audits = st.audits
	r.notifications = st.notifications
}

// memoryTx writes directly; memoryRepo.WithTx holds the lock and rolls back
// via snapshot on error.
type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) InsertRequest(ctx context.Context, req *Request) error {
	cp := *req
	t.repo.requests[req.ID] = &cp
	return nil
}

func (t *memoryTx) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, approverID *int64, note string, at *time.Time) (bool, error) {
	req, ok := t.repo.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.ApproverID = approverID
	req.ApproverNote = note
	req.ApprovedAt = at
	return true, nil
}

func (t *memoryTx) LockBalance(ctx context.Context, userID int64) (*Balance, error) {
	b, ok := t.repo.balances[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (t *memoryTx) UpdateBalance(ctx context.Context, b *Balance) error {
	stored, ok := t.repo.balances[b.UserID]
	if !ok || stored.Version != b.Version {
		return ErrStaleBalance
	}
	cp := *b
	cp.Version++
	cp.UpdatedAt = time.Now()
	t.repo.balances[b.UserID] = &cp
	b.Version = cp.Version
	return nil
}

func (t *memoryTx) RecordAudit(ctx context.Context, e audit.Entry) error {
	t.repo.audits = append(t.repo.audits, e)
	return nil
}

func (t *memoryTx) EnqueueNotification(ctx context.Context, m notify.Message) error {
	m.Status = notify.StatusPending
	t.repo.notifications = append(t.repo.notifications, m)
	return nil
}
