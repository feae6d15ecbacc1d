package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(2)
	s.Insert(10, []string{"alice", "smith"})
	s.Insert(20, []string{"bob", ""})
	s.Insert(30, []string{"carol", "jones"})
	s.Delete(20)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	type row struct {
		id   uint64
		vals []string
	}
	var rows []row
	cols, err := LoadRows(&buf, func(id uint64, vals []string) error {
		rows = append(rows, row{id, vals})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cols)

	// Tombstoned rows are not written.
	require.Equal(t, []row{
		{10, []string{"alice", "smith"}},
		{30, []string{"carol", "jones"}},
	}, rows)
}

func TestSnapshotEmptyStore(t *testing.T) {
	s := New(3)

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	called := 0
	cols, err := LoadRows(&buf, func(uint64, []string) error {
		called++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, cols)
	assert.Equal(t, 0, called)
}

func TestSnapshotGarbageInput(t *testing.T) {
	_, err := LoadRows(bytes.NewReader(nil), func(uint64, []string) error { return nil })
	require.Error(t, err)

	_, err = LoadRows(bytes.NewReader([]byte("not a snapshot")), func(uint64, []string) error { return nil })
	require.Error(t, err)
}
