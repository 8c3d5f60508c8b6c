package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MessageStore {
	t.Helper()
	store, err := NewMessageStore(DefaultOptions)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMessageStore_InsertAndGet(t *testing.T) {
	store := newTestStore(t)

	record := &MessageRecord{
		Kind:     "group",
		PeerId:   42,
		SenderId: 10000,
		Content:  "你好[CQ:at,qq=123]",
	}
	id, err := store.Insert(record)
	require.NoError(t, err)
	assert.Greater(t, id, int32(0))
	assert.NotZero(t, record.Time)

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, record.Kind, got.Kind)
	assert.EqualValues(t, 42, got.PeerId)
	assert.EqualValues(t, 10000, got.SenderId)
	assert.Equal(t, record.Content, got.Content)
}

func TestMessageStore_IdsIncrease(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Insert(&MessageRecord{Kind: "private", PeerId: 1, SenderId: 2, Content: "a"})
	require.NoError(t, err)
	second, err := store.Insert(&MessageRecord{Kind: "private", PeerId: 1, SenderId: 2, Content: "b"})
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestMessageStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(12345)
	assert.Error(t, err)
}
