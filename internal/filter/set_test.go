package filter

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

func TestSetValuesInOrder(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.set.Add(taskType, "status", models.OpEqual, "Open")
	require.NoError(t, err)
	_, _, err = env.set.Add(taskType, "subject", models.OpLike, "invoice")
	require.NoError(t, err)
	_, _, err = env.set.Add(taskType, "is_urgent", models.OpEqual, 1)
	require.NoError(t, err)

	assert.Equal(t, []models.FilterCondition{
		{RecordType: taskType, Field: "status", Operator: models.OpEqual, Value: "Open"},
		{RecordType: taskType, Field: "subject", Operator: models.OpLike, Value: "%invoice%"},
		{RecordType: taskType, Field: "is_urgent", Operator: models.OpEqual, Value: 1},
	}, env.set.Values())
}

func TestSetAddUnknownField(t *testing.T) {
	env := newTestEnv(t)

	r, d, err := env.set.Add(taskType, "missing", models.OpEqual, "x")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Nil(t, r)
	assert.Nil(t, d)
	assert.Empty(t, env.set.Rows())
}

func TestSetFilterValue(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.set.Add(taskType, "status", models.OpEqual, "Closed")
	require.NoError(t, err)

	v, ok := env.set.FilterValue("status")
	require.True(t, ok)
	assert.Equal(t, "Closed", v)

	_, ok = env.set.FilterValue("subject")
	assert.False(t, ok)
}

func TestSetRemoveAndClear(t *testing.T) {
	env := newTestEnv(t)
	var changes atomic.Int32
	env.set.OnChange(func() { changes.Add(1) })

	first, _, err := env.set.Add(taskType, "status", models.OpEqual, "Open")
	require.NoError(t, err)
	_, _, err = env.set.Add(taskType, "subject", models.OpEqual, "x")
	require.NoError(t, err)

	env.set.Remove(first.ID())
	require.Len(t, env.set.Rows(), 1)
	_, ok := env.set.Row(first.ID())
	assert.False(t, ok)

	env.set.Clear()
	assert.Empty(t, env.set.Rows())
	assert.Empty(t, env.set.Values())
	assert.Positive(t, changes.Load())
}

func TestSetRowIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)
	a := env.set.NewRow()
	b := env.set.NewRow()
	assert.NotEqual(t, a.ID(), b.ID())

	found, ok := env.set.Row(b.ID())
	require.True(t, ok)
	assert.Same(t, b, found)
}
