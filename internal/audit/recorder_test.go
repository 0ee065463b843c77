package audit

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type captureExecer struct {
	sql  string
	args []any
	err  error
}

func (c *captureExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql = sql
	c.args = args
	return pgconn.CommandTag{}, c.err
}

func TestRecordRequiresIdentity(t *testing.T) {
	rec := NewRecorder(&captureExecer{})

	err := rec.Record(context.Background(), Entry{Action: "pto.approve"})
	require.Error(t, err)

	err = rec.Record(context.Background(), Entry{EntityType: "PTORequest", EntityID: "x"})
	require.Error(t, err)
}

func TestRecordInsertsRow(t *testing.T) {
	ex := &captureExecer{}
	rec := NewRecorder(ex)

	err := rec.Record(context.Background(), Entry{
		ActorID:    5,
		ActorName:  "Mira Chen",
		Action:     "pto.deny",
		EntityType: "PTORequest",
		EntityID:   "abc-123",
		Details:    "Denied PTO request",
		Metadata:   map[string]any{"hours": 16.0},
	})
	require.NoError(t, err)
	require.Contains(t, ex.sql, "INSERT INTO audit_logs")
	require.Equal(t, int64(5), ex.args[0])
	require.Equal(t, "pto.deny", ex.args[2])
}

func TestRecordNilRecorder(t *testing.T) {
	var rec *Recorder
	require.Error(t, rec.Record(context.Background(), Entry{Action: "x", EntityType: "y", EntityID: "z"}))
}
