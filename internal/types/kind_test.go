package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromName(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"string", KindString},
		{"gchararray", KindString},
		{"GINT", KindInt},
		{"gboolean", KindBool},
		{" boolean ", KindBool},
		{"gdouble", KindFloat},
		{"blob", KindBlob},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KindFromName(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := KindFromName("geometry")
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(int32(4))
	assert.True(t, ok)
	assert.Equal(t, KindInt, k)

	k, ok = KindOf(nil)
	assert.True(t, ok)
	assert.Equal(t, KindNull, k)

	_, ok = KindOf(struct{}{})
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	t.Run("both null", func(t *testing.T) {
		eq, err := Equal(nil, nil)
		require.NoError(t, err)
		assert.True(t, eq)
	})

	t.Run("null against value", func(t *testing.T) {
		eq, err := Equal(nil, "a")
		require.NoError(t, err)
		assert.False(t, eq)

		eq, err = Equal(int64(1), nil)
		require.NoError(t, err)
		assert.False(t, eq)
	})

	t.Run("same kind equal after widening", func(t *testing.T) {
		eq, err := Equal(int64(3), 3)
		require.NoError(t, err)
		assert.True(t, eq)
	})

	t.Run("same kind different value", func(t *testing.T) {
		eq, err := Equal("a", "b")
		require.NoError(t, err)
		assert.False(t, eq)
	})

	t.Run("blobs", func(t *testing.T) {
		eq, err := Equal([]byte{1, 2}, []byte{1, 2})
		require.NoError(t, err)
		assert.True(t, eq)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := Equal("1", int64(1))
		require.Error(t, err)
		var mismatch *MismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, KindString, mismatch.Left)
		assert.Equal(t, KindInt, mismatch.Right)
	})
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "NULL", Stringify(nil))
	assert.Equal(t, "foo", Stringify("foo"))
	assert.Equal(t, "12", Stringify(12))
	assert.Equal(t, "1.5", Stringify(1.5))
	assert.Equal(t, "TRUE", Stringify(true))
	assert.Equal(t, "x'0102'", Stringify([]byte{1, 2}))
}
