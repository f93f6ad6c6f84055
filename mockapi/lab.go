package mockapi

import (
	"strconv"
	"sync"

	"github.com/jrsteele09/ats-client/resources"
)

// labStore holds the lab test catalogue, keyed by sequential numeric ids.
type labStore struct {
	mu     sync.RWMutex
	tests  map[string]resources.LabTest
	order  []string
	nextID int
}

func newLabStore() *labStore {
	return &labStore{tests: make(map[string]resources.LabTest), nextID: 1}
}

func (l *labStore) create(t resources.LabTest) resources.LabTest {
	l.mu.Lock()
	defer l.mu.Unlock()
	t.ID = strconv.Itoa(l.nextID)
	l.nextID++
	l.tests[t.ID] = t
	l.order = append(l.order, t.ID)
	return t
}

func (l *labStore) update(id string, t resources.LabTest) (resources.LabTest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tests[id]; !ok {
		return resources.LabTest{}, false
	}
	t.ID = id
	l.tests[id] = t
	return t, true
}

func (l *labStore) delete(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tests[id]; !ok {
		return false
	}
	delete(l.tests, id)
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

func (l *labStore) get(id string) (resources.LabTest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tests[id]
	return t, ok
}

func (l *labStore) list() []resources.LabTest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tests := make([]resources.LabTest, 0, len(l.order))
	for _, id := range l.order {
		tests = append(tests, l.tests[id])
	}
	return tests
}

// result is one recorded measurement. Value keeps the decimal text the backend stores.
type result struct {
	ID           string
	TestID       string
	Value        string
	DateRecorded string
	Notes        string
}

type resultStore struct {
	mu      sync.RWMutex
	results map[string][]result // athlete id to results
	nextID  int
}

func newResultStore() *resultStore {
	return &resultStore{results: make(map[string][]result), nextID: 1}
}

func (rs *resultStore) add(athleteID string, r result) result {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r.ID = strconv.Itoa(rs.nextID)
	rs.nextID++
	rs.results[athleteID] = append(rs.results[athleteID], r)
	return r
}

func (rs *resultStore) forAthlete(athleteID string) []result {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]result(nil), rs.results[athleteID]...)
}

func (rs *resultStore) deleteAthlete(athleteID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.results, athleteID)
}
