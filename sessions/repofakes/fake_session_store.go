package fakesessionstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/ats-client/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

// FakeSessionStore is an in-memory Store that records how often it was written to.
type FakeSessionStore struct {
	session sessions.Session
	lock    sync.RWMutex

	saves        int
	clears       int
	tokenUpdates int
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

// NewFakeSessionStoreWith returns a store already holding s.
func NewFakeSessionStoreWith(s sessions.Session) *FakeSessionStore {
	return &FakeSessionStore{session: s.Clone()}
}

func (fs *FakeSessionStore) Save(_ context.Context, s sessions.Session) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.saves++
	fs.session = s.Clone()
}

func (fs *FakeSessionStore) Load(_ context.Context) sessions.Session {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.session.Clone()
}

func (fs *FakeSessionStore) Clear(_ context.Context) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.clears++
	fs.session = sessions.Session{}
}

func (fs *FakeSessionStore) IsAuthenticated(_ context.Context) bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.session.IsAuthenticated()
}

func (fs *FakeSessionStore) UpdateTokens(_ context.Context, usedRefresh, accessToken, newRefresh string) bool {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if !fs.session.IsAuthenticated() || fs.session.RefreshToken != usedRefresh {
		return false
	}
	fs.tokenUpdates++
	if newRefresh == "" {
		newRefresh = fs.session.RefreshToken
	}
	fs.session = sessions.New(accessToken, newRefresh, fs.session.User)
	return true
}

// Counts returns the number of saves, clears and token updates so far.
func (fs *FakeSessionStore) Counts() (saves, clears, tokenUpdates int) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	return fs.saves, fs.clears, fs.tokenUpdates
}
