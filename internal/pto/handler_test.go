package pto

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/rbac"
	"github.com/timewise-hq/timewise/internal/shared"
)

func requestWithPrincipal(method, target, body string, p rbac.Principal) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(rbac.ContextWithPrincipal(req.Context(), p))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func employeePrincipal(id int64, name string) rbac.Principal {
	return rbac.Principal{ID: id, Name: name, Role: shared.RoleEmployee}
}

func managerPrincipal(id int64, name string) rbac.Principal {
	return rbac.Principal{
		ID: id, Name: name, Role: shared.RoleManager,
		Permissions: shared.RolePermissions[shared.RoleManager],
	}
}

func TestHandleSubmit(t *testing.T) {
	repo := newMemoryRepo()
	h := NewHandler(slog.Default(), newTestService(repo))

	body := `{"type":"vacation","start_date":"2024-03-04","end_date":"2024-03-08"}`
	req := requestWithPrincipal(http.MethodPost, "/pto/requests", body, employeePrincipal(1, "Ana Silva"))
	rr := httptest.NewRecorder()
	h.handleSubmit(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"total_hours":40`)
	require.Contains(t, rr.Body.String(), `"status":"pending"`)
}

func TestHandleSubmitBadDate(t *testing.T) {
	h := NewHandler(slog.Default(), newTestService(newMemoryRepo()))

	body := `{"type":"vacation","start_date":"03/04/2024","end_date":"2024-03-08"}`
	req := requestWithPrincipal(http.MethodPost, "/pto/requests", body, employeePrincipal(1, "Ana Silva"))
	rr := httptest.NewRecorder()
	h.handleSubmit(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSubmitUnknownTypeRejectedByValidation(t *testing.T) {
	h := NewHandler(slog.Default(), newTestService(newMemoryRepo()))

	body := `{"type":"sabbatical","start_date":"2024-03-04","end_date":"2024-03-08"}`
	req := requestWithPrincipal(http.MethodPost, "/pto/requests", body, employeePrincipal(1, "Ana Silva"))
	rr := httptest.NewRecorder()
	h.handleSubmit(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSubmitUnauthenticated(t *testing.T) {
	h := NewHandler(slog.Default(), newTestService(newMemoryRepo()))

	req := httptest.NewRequest(http.MethodPost, "/pto/requests", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	h.handleSubmit(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandleApproveInsufficientBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addContact(1, "Ana Silva", "ana@example.com", nil)
	repo.setBalance(1, 8, 80, 72)
	svc := newTestService(repo)
	h := NewHandler(slog.Default(), svc)

	submitted := submitVacation(t, svc, 1, "2024-03-04", "2024-03-08")

	req := requestWithPrincipal(http.MethodPost, "/pto/requests/"+submitted.ID.String()+"/approve",
		`{"note":"ok"}`, managerPrincipal(9, "Marta Ruiz"))
	req = withURLParam(req, "id", submitted.ID.String())
	rr := httptest.NewRecorder()
	h.handleApprove(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleApproveConflictOnFinalised(t *testing.T) {
	repo := newMemoryRepo()
	repo.addContact(1, "Ana Silva", "ana@example.com", nil)
	repo.setBalance(1, 80, 80, 0)
	svc := newTestService(repo)
	h := NewHandler(slog.Default(), svc)

	submitted := submitVacation(t, svc, 1, "2024-03-04", "2024-03-08")
	_, err := svc.Approve(context.Background(), ApproveInput{
		RequestID: submitted.ID,
		Actor:     Actor{ID: 9, Name: "Marta Ruiz", CanApprove: true},
	})
	require.NoError(t, err)

	req := requestWithPrincipal(http.MethodPost, "/pto/requests/"+submitted.ID.String()+"/approve",
		`{}`, managerPrincipal(9, "Marta Ruiz"))
	req = withURLParam(req, "id", submitted.ID.String())
	rr := httptest.NewRecorder()
	h.handleApprove(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleDenyMissingReason(t *testing.T) {
	h := NewHandler(slog.Default(), newTestService(newMemoryRepo()))

	req := requestWithPrincipal(http.MethodPost, "/pto/requests/x/deny", `{}`, managerPrincipal(9, "Marta Ruiz"))
	req = withURLParam(req, "id", "2f0b9c0a-8f3e-4c21-9a4d-0b9a63d1e111")
	rr := httptest.NewRecorder()
	h.handleDeny(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleAdjustForbiddenForManager(t *testing.T) {
	repo := newMemoryRepo()
	repo.setBalance(1, 80, 80, 0)
	h := NewHandler(slog.Default(), newTestService(repo))

	req := requestWithPrincipal(http.MethodPost, "/admin/pto/balances/1/adjust",
		`{"delta_hours":8,"reason":"grant"}`, managerPrincipal(9, "Marta Ruiz"))
	req = withURLParam(req, "userID", "1")
	rr := httptest.NewRecorder()
	h.handleAdjust(rr, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHandleBalanceLazyCreate(t *testing.T) {
	repo := newMemoryRepo()
	h := NewHandler(slog.Default(), newTestService(repo))

	req := requestWithPrincipal(http.MethodGet, "/pto/balance", "", employeePrincipal(5, "New Hire"))
	rr := httptest.NewRecorder()
	h.handleBalance(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"balance_hours":80`)
}
