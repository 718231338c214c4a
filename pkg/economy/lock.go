package economy

import "sync"

// memberLocks serializes read-modify-write cycles per (guildID, memberID)
// owner key. Without it, two interleaved mutations of the same sub-document
// would race on the fetch-mutate-write-back pattern and the earlier writer's
// delta would be lost.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemberLocks() *memberLocks {
	return &memberLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// lock acquires the mutex for the owner key and returns the matching
// unlock. Guild-scoped operations pass an empty member ID.
func (l *memberLocks) lock(guildID string, memberID string) func() {
	key := guildID + ":" + memberID

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
