package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/shared"
)

type stubSource struct {
	principal Principal
	err       error
}

func (s stubSource) Resolve(ctx context.Context, userID int64) (Principal, error) {
	if s.err != nil {
		return Principal{}, s.err
	}
	p := s.principal
	p.ID = userID
	return p, nil
}

func requestWithUser(t *testing.T, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/pto/inbox", nil)
	sess := &shared.Session{}
	sess.SetUser(userID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireAnyGrantsPermission(t *testing.T) {
	mw := Middleware{Source: stubSource{principal: Principal{
		Role:        shared.RoleManager,
		Permissions: shared.RolePermissions[shared.RoleManager],
	}}}

	var saw Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saw, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	mw.RequireAny(shared.PermPTOApprove)(next).ServeHTTP(rr, requestWithUser(t, "9"))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, int64(9), saw.ID)
	require.True(t, saw.Has(shared.PermPTOApprove))
}

func TestRequireAnyDeniesEmployee(t *testing.T) {
	mw := Middleware{Source: stubSource{principal: Principal{
		Role:        shared.RoleEmployee,
		Permissions: shared.RolePermissions[shared.RoleEmployee],
	}}}

	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mw.RequireAny(shared.PermPTOApprove)(next).ServeHTTP(rr, requestWithUser(t, "4"))

	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireUserWithoutSession(t *testing.T) {
	mw := Middleware{Source: stubSource{}}
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mw.RequireUser(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
