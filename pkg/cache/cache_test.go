package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDistinguishesMissFromNil(t *testing.T) {
	m := NewManager()
	p := m.Partition(Balance)

	_, ok := p.Get(Key{GuildID: "G1", MemberID: "U1"})
	assert.False(t, ok)

	require.NoError(t, p.Set(Key{GuildID: "G1", MemberID: "U1"}, nil))
	value, ok := p.Get(Key{GuildID: "G1", MemberID: "U1"})
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestUpdateRefetches(t *testing.T) {
	m := NewManager()
	balance := 100
	require.NoError(t, m.Register(Balance, func(k Key) (any, error) {
		return balance, nil
	}))

	key := Key{GuildID: "G1", MemberID: "U1"}
	require.NoError(t, m.Partition(Balance).Update(key))
	value, ok := m.Partition(Balance).Get(key)
	require.True(t, ok)
	assert.Equal(t, 100, value)

	balance = 250
	require.NoError(t, m.Partition(Balance).Update(key))
	value, _ = m.Partition(Balance).Get(key)
	assert.Equal(t, 250, value)
}

func TestUpdateRequiresGuildID(t *testing.T) {
	m := NewManager()
	err := m.Partition(Balance).Update(Key{MemberID: "U1"})
	assert.ErrorIs(t, err, ErrInvalidIdentifiers)
}

func TestUpdateManyFansOut(t *testing.T) {
	m := NewManager()
	fetched := make(map[string]int)
	var mu sync.Mutex
	for _, name := range []string{Users, Inventory, History} {
		name := name
		require.NoError(t, m.Register(name, func(k Key) (any, error) {
			mu.Lock()
			fetched[name]++
			mu.Unlock()
			return name, nil
		}))
	}

	key := Key{GuildID: "G1", MemberID: "U1"}
	require.NoError(t, m.UpdateMany([]string{Users, Inventory, History}, key))

	assert.Equal(t, map[string]int{Users: 1, Inventory: 1, History: 1}, fetched)
	for _, name := range []string{Users, Inventory, History} {
		value, ok := m.Partition(name).Get(key)
		require.True(t, ok)
		assert.Equal(t, name, value)
	}
}

func TestUpdateManyRejectsUnknownPartition(t *testing.T) {
	m := NewManager()
	err := m.UpdateMany([]string{"bogus"}, Key{GuildID: "G1"})
	assert.ErrorIs(t, err, ErrUnknownPartition)
}

func TestKeysAreIndependent(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(Shop, func(k Key) (any, error) {
		return k.GuildID, nil
	}))

	require.NoError(t, m.Partition(Shop).Update(Key{GuildID: "G1"}))
	require.NoError(t, m.Partition(Shop).Update(Key{GuildID: "G2"}))

	v1, _ := m.Partition(Shop).Get(Key{GuildID: "G1"})
	v2, _ := m.Partition(Shop).Get(Key{GuildID: "G2"})
	assert.Equal(t, "G1", v1)
	assert.Equal(t, "G2", v2)
}

func TestConcurrentUpdatesSameKeySerialize(t *testing.T) {
	m := NewManager()
	active := 0
	peak := 0
	var mu sync.Mutex
	require.NoError(t, m.Register(Balance, func(k Key) (any, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		mu.Lock()
		active--
		mu.Unlock()
		return 0, nil
	}))

	key := Key{GuildID: "G1", MemberID: "U1"}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Partition(Balance).Update(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
}

func TestClearAndDelete(t *testing.T) {
	m := NewManager()
	p := m.Partition(Users)
	require.NoError(t, p.Set(Key{GuildID: "G1", MemberID: "U1"}, 1))
	require.NoError(t, p.Set(Key{GuildID: "G1", MemberID: "U2"}, 2))

	p.Delete(Key{GuildID: "G1", MemberID: "U1"})
	_, ok := p.Get(Key{GuildID: "G1", MemberID: "U1"})
	assert.False(t, ok)
	assert.Equal(t, 1, p.Len())

	m.ClearAll()
	assert.Equal(t, 0, p.Len())
}
