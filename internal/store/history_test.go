package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryOldestFirstWithLimit(t *testing.T) {
	h, err := NewHistoryStore(":memory:")
	require.NoError(t, err)
	defer h.Close()

	for i := 0; i < 12; i++ {
		require.NoError(t, h.AddMessage("chat-1", RoleHuman, fmt.Sprintf("q%d", i)))
	}
	require.NoError(t, h.AddMessage("chat-2", RoleHuman, "other"))

	msgs, err := h.GetHistory("chat-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 10)
	assert.Equal(t, "q2", msgs[0].Content)
	assert.Equal(t, "q11", msgs[9].Content)
	assert.False(t, msgs[0].Timestamp.IsZero())

	require.NoError(t, h.ClearHistory("chat-1"))
	msgs, err = h.GetHistory("chat-1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = h.GetHistory("chat-2", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestPlanArchive(t *testing.T) {
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	defer h.Close()

	rec, err := NewPlanRecord("", "Plan a picnic", "completed", 0.9,
		map[string]any{"status": "completed"}, []map[string]int{{"iteration": 1}})
	require.NoError(t, err)

	id, err := h.SavePlan(rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := h.GetPlan(id)
	require.NoError(t, err)
	assert.Equal(t, "Plan a picnic", got.Task)
	assert.Equal(t, "completed", got.Status)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.JSONEq(t, `{"status":"completed"}`, string(got.Plan))
	assert.JSONEq(t, `[{"iteration":1}]`, string(got.History))

	list, err := h.ListPlans(5)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.GetPlan("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
