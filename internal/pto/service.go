package pto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/timewise-hq/timewise/internal/audit"
	"github.com/timewise-hq/timewise/internal/notify"
	"github.com/timewise-hq/timewise/internal/shared"
)

// PolicyProvider resolves the current company PTO configuration.
type PolicyProvider interface {
	Policy(ctx context.Context) (Policy, error)
}

// StaticPolicy is a PolicyProvider that always returns the same values.
type StaticPolicy Policy

// Policy implements PolicyProvider.
func (p StaticPolicy) Policy(context.Context) (Policy, error) {
	return Policy(p), nil
}

// Service implements the PTO workflow.
type Service struct {
	logger *slog.Logger
	repo   Repository
	policy PolicyProvider
	idem   *shared.IdempotencyStore
	now    func() time.Time
}

// NewService constructs the workflow service. idem may be nil, in which case
// idempotency keys on decisions are ignored.
func NewService(logger *slog.Logger, repo Repository, policy PolicyProvider, idem *shared.IdempotencyStore) *Service {
	if policy == nil {
		policy = StaticPolicy(DefaultPolicy)
	}
	return &Service{
		logger: logger,
		repo:   repo,
		policy: policy,
		idem:   idem,
		now:    time.Now,
	}
}

// Submit validates and creates a pending request. The total is derived at
// submission time and frozen on the row.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, ErrInvalidRange
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrInvalidRange
	}
	if in.Type == TypeUnpaid && strings.TrimSpace(in.Note) == "" {
		return nil, ErrMissingNote
	}
	if in.PartialDayHours != nil && *in.PartialDayHours <= 0 {
		return nil, ErrInvalidHours
	}

	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve pto policy: %w", err)
	}
	total := TotalHours(in.StartDate, in.EndDate, in.PartialDayHours, policy.WorkdayHours)
	if total <= 0 {
		return nil, ErrInvalidHours
	}

	req := &Request{
		ID:              uuid.New(),
		UserID:          in.UserID,
		Type:            in.Type,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		PartialDayHours: in.PartialDayHours,
		TotalHours:      total,
		Note:            strings.TrimSpace(in.Note),
		Status:          StatusPending,
		CreatedAt:       s.now(),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertRequest(ctx, req); err != nil {
			return fmt.Errorf("insert pto request: %w", err)
		}
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:    in.UserID,
			ActorName:  in.UserName,
			Action:     "pto.request",
			EntityType: "pto_request",
			EntityID:   req.ID.String(),
			Details:    fmt.Sprintf("requested %.1fh %s", total, req.Type),
			Metadata: map[string]any{
				"type":        string(req.Type),
				"start_date":  req.StartDate.Format("2006-01-02"),
				"end_date":    req.EndDate.Format("2006-01-02"),
				"total_hours": total,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pto request submitted",
		slog.String("request_id", req.ID.String()),
		slog.Int64("user_id", req.UserID),
		slog.Float64("total_hours", total))
	return req, nil
}

// Cancel withdraws the requester's own pending request.
func (s *Service) Cancel(ctx context.Context, requestID uuid.UUID, actor Actor) (*Request, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != actor.ID {
		return nil, ErrNotOwner
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.TransitionStatus(ctx, requestID, StatusPending, StatusCancelled, nil, "", nil)
		if err != nil {
			return fmt.Errorf("cancel pto request: %w", err)
		}
		if !ok {
			return ErrNotPending
		}
		return tx.RecordAudit(ctx, audit.Entry{
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			Action:     "pto.cancel",
			EntityType: "pto_request",
			EntityID:   requestID.String(),
			Details:    "request cancelled by requester",
		})
	})
	if err != nil {
		return nil, err
	}

	req.Status = StatusCancelled
	return req, nil
}

// Approve finalises a pending request and, for paid types, debits the
// requester's balance. The conditional transition and the FOR UPDATE balance
// lock run in one transaction, so of two racing approvals exactly one wins
// and the balance is debited once.
func (s *Service) Approve(ctx context.Context, in ApproveInput) (*Request, error) {
	if !in.Actor.CanApprove {
		return nil, ErrNotAuthorized
	}

	req, err := s.repo.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	contact, err := s.repo.UserContact(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load requester contact: %w", err)
	}

	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve pto policy: %w", err)
	}
	if req.Type.Paid() {
		if _, err := s.repo.EnsureBalance(ctx, req.UserID, policy.DefaultAllotmentHours); err != nil {
			return nil, fmt.Errorf("ensure balance: %w", err)
		}
	}

	release, err := s.claimKey(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	approverID := in.Actor.ID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.TransitionStatus(ctx, in.RequestID, StatusPending, StatusApproved, &approverID, in.Note, &now)
		if err != nil {
			return fmt.Errorf("approve pto request: %w", err)
		}
		if !ok {
			return ErrNotPending
		}

		if req.Type.Paid() {
			bal, err := tx.LockBalance(ctx, req.UserID)
			if err != nil {
				return fmt.Errorf("lock balance: %w", err)
			}
			remaining := bal.BalanceHours - req.TotalHours
			if remaining < 0 && !in.AllowNegative {
				return ErrInsufficientBalance
			}
			bal.BalanceHours = remaining
			bal.UsedHours += req.TotalHours
			if err := tx.UpdateBalance(ctx, bal); err != nil {
				return err
			}
		}

		if err := tx.RecordAudit(ctx, audit.Entry{
			ActorID:    in.Actor.ID,
			ActorName:  in.Actor.Name,
			Action:     "pto.approve",
			EntityType: "pto_request",
			EntityID:   in.RequestID.String(),
			Details:    fmt.Sprintf("approved %.1fh %s for %s", req.TotalHours, req.Type, contact.Name),
			Metadata: map[string]any{
				"user_id":        req.UserID,
				"total_hours":    req.TotalHours,
				"allow_negative": in.AllowNegative,
				"note":           in.Note,
			},
		}); err != nil {
			return err
		}

		return tx.EnqueueNotification(ctx, notify.Message{
			Recipient: contact.Email,
			Subject:   "PTO Request Approved",
			Body: fmt.Sprintf("Hi %s, your %s request for %s through %s (%.1f hours) was approved by %s.",
				contact.Name, req.Type,
				req.StartDate.Format("Jan 2, 2006"), req.EndDate.Format("Jan 2, 2006"),
				req.TotalHours, in.Actor.Name),
			Metadata: map[string]any{"request_id": req.ID.String(), "type": string(req.Type)},
		})
	})
	if err != nil {
		release()
		return nil, err
	}

	req.Status = StatusApproved
	req.ApproverID = &approverID
	req.ApproverNote = in.Note
	req.ApprovedAt = &now

	s.logger.Info("pto request approved",
		slog.String("request_id", req.ID.String()),
		slog.Int64("approver_id", in.Actor.ID),
		slog.Float64("total_hours", req.TotalHours))
	return req, nil
}

// Deny finalises a pending request without touching the balance. A reason is
// mandatory and is relayed to the requester.
func (s *Service) Deny(ctx context.Context, in DenyInput) (*Request, error) {
	if !in.Actor.CanApprove {
		return nil, ErrNotAuthorized
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	req, err := s.repo.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrNotPending
	}

	contact, err := s.repo.UserContact(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load requester contact: %w", err)
	}

	release, err := s.claimKey(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	approverID := in.Actor.ID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.TransitionStatus(ctx, in.RequestID, StatusPending, StatusDenied, &approverID, reason, &now)
		if err != nil {
			return fmt.Errorf("deny pto request: %w", err)
		}
		if !ok {
			return ErrNotPending
		}

		if err := tx.RecordAudit(ctx, audit.Entry{
			ActorID:    in.Actor.ID,
			ActorName:  in.Actor.Name,
			Action:     "pto.deny",
			EntityType: "pto_request",
			EntityID:   in.RequestID.String(),
			Details:    fmt.Sprintf("denied %s request for %s", req.Type, contact.Name),
			Metadata: map[string]any{
				"user_id": req.UserID,
				"reason":  reason,
			},
		}); err != nil {
			return err
		}

		return tx.EnqueueNotification(ctx, notify.Message{
			Recipient: contact.Email,
			Subject:   "PTO Request Denied",
			Body: fmt.Sprintf("Hi %s, your %s request for %s through %s was denied by %s. Reason: %s",
				contact.Name, req.Type,
				req.StartDate.Format("Jan 2, 2006"), req.EndDate.Format("Jan 2, 2006"),
				in.Actor.Name, reason),
			Metadata: map[string]any{"request_id": req.ID.String(), "type": string(req.Type)},
		})
	})
	if err != nil {
		release()
		return nil, err
	}

	req.Status = StatusDenied
	req.ApproverID = &approverID
	req.ApproverNote = reason
	req.ApprovedAt = &now
	return req, nil
}

// AdjustBalance applies an administrative delta to a user's ledger. Positive
// deltas count as accrual, negative ones as usage, and the balance floors at
// zero.
func (s *Service) AdjustBalance(ctx context.Context, in AdjustInput) (*Balance, error) {
	if !in.Actor.CanAdjust {
		return nil, ErrNotAuthorized
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if in.DeltaHours == 0 {
		return nil, ErrInvalidHours
	}

	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve pto policy: %w", err)
	}
	if _, err := s.repo.EnsureBalance(ctx, in.UserID, policy.DefaultAllotmentHours); err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}
	contact, err := s.repo.UserContact(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user contact: %w", err)
	}

	release, err := s.claimKey(ctx, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}

	var result *Balance
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bal, err := tx.LockBalance(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
		before := bal.BalanceHours

		bal.BalanceHours = max(0, bal.BalanceHours+in.DeltaHours)
		if in.DeltaHours > 0 {
			bal.AccruedHours += in.DeltaHours
		} else {
			bal.UsedHours += -in.DeltaHours
		}
		if err := tx.UpdateBalance(ctx, bal); err != nil {
			return err
		}

		if err := tx.RecordAudit(ctx, audit.Entry{
			ActorID:    in.Actor.ID,
			ActorName:  in.Actor.Name,
			Action:     "pto_balance.adjust",
			EntityType: "pto_balance",
			EntityID:   fmt.Sprintf("%d", bal.ID),
			Details:    fmt.Sprintf("adjusted balance by %+.1fh: %s", in.DeltaHours, reason),
			Metadata: map[string]any{
				"user_id":        in.UserID,
				"delta_hours":    in.DeltaHours,
				"balance_before": before,
				"balance_after":  bal.BalanceHours,
				"reason":         reason,
			},
		}); err != nil {
			return err
		}

		if err := tx.EnqueueNotification(ctx, notify.Message{
			Recipient: contact.Email,
			Subject:   "PTO Balance Adjusted",
			Body: fmt.Sprintf("Hi %s, your PTO balance was adjusted by %+.1f hours (now %.1f hours). Reason: %s",
				contact.Name, in.DeltaHours, bal.BalanceHours, reason),
			Metadata: map[string]any{"user_id": in.UserID, "delta_hours": in.DeltaHours},
		}); err != nil {
			return err
		}

		result = bal
		return nil
	})
	if err != nil {
		release()
		return nil, err
	}
	return result, nil
}

// GetOrCreateBalance returns the user's ledger row, creating it with the
// default allotment on first access.
func (s *Service) GetOrCreateBalance(ctx context.Context, userID int64) (*Balance, error) {
	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve pto policy: %w", err)
	}
	return s.repo.EnsureBalance(ctx, userID, policy.DefaultAllotmentHours)
}

// ListByUser returns the user's requests, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Request, error) {
	return s.repo.ListByUser(ctx, userID)
}

// PendingInbox lists requests awaiting a decision. Managers see only their
// own department; admins see everything.
func (s *Service) PendingInbox(ctx context.Context, actor Actor, scopeToDepartment bool) ([]PendingRequest, error) {
	if !actor.CanApprove {
		return nil, ErrNotAuthorized
	}
	var deptFilter *int64
	if scopeToDepartment {
		contact, err := s.repo.UserContact(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("load approver contact: %w", err)
		}
		if contact.DepartmentID == nil {
			return []PendingRequest{}, nil
		}
		deptFilter = contact.DepartmentID
	}
	return s.repo.ListPending(ctx, deptFilter)
}

// claimKey reserves an idempotency key and returns a release func for
// rollback when the guarded operation fails. A no-op when the store is absent
// or no key was supplied.
func (s *Service) claimKey(ctx context.Context, key string) (func(), error) {
	if s.idem == nil || key == "" {
		return func() {}, nil
	}
	if err := s.idem.CheckAndInsert(ctx, key, "pto"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	return func() {
		if err := s.idem.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}
