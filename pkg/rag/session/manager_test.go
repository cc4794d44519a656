package session

import (
	"sync"
	"testing"
	"time"

	"ai-legal-engine/internal/repository/memory"
	"ai-legal-engine/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(memory.NewSessionRepository(time.Hour, time.Minute))
}

func TestLoadOrCreateStartsInGeneralMode(t *testing.T) {
	m := newTestManager()

	s := m.LoadOrCreate("abc")

	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, store.ModeGeneral, s.Mode)
	assert.Equal(t, 0, s.Log.Len())
}

func TestLoadOrCreateReturnsSameSession(t *testing.T) {
	m := newTestManager()

	first := m.LoadOrCreate("abc")
	first.Log.AppendUser("hello")
	second := m.LoadOrCreate(" abc ")

	assert.Same(t, first, second)
	assert.Equal(t, 1, second.Log.Len())
}

func TestLoadOrCreateGeneratesID(t *testing.T) {
	m := newTestManager()

	a := m.LoadOrCreate("")
	b := m.LoadOrCreate("")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestManager()

	a := m.LoadOrCreate("a")
	b := m.LoadOrCreate("b")
	m.SetMode(a, store.ModeDocument)
	a.Log.AppendUser("only in a")

	assert.Equal(t, store.ModeGeneral, b.Mode)
	assert.Equal(t, 0, b.Log.Len())
}

func TestConcurrentLoadOrCreate(t *testing.T) {
	m := newTestManager()

	var wg sync.WaitGroup
	got := make([]*store.Session, 50)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = m.LoadOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
}

func TestReset(t *testing.T) {
	m := newTestManager()
	s := m.LoadOrCreate("abc")
	s.Log.AppendUser("hello")
	m.SetMode(s, store.ModeDocument)

	require.True(t, m.Reset("abc"))
	assert.Equal(t, store.ModeGeneral, s.Mode)
	assert.Equal(t, 0, s.Log.Len())

	assert.False(t, m.Reset("missing"))
}

func TestSessionSurvivesIdleWithoutTTL(t *testing.T) {
	m := NewManager(memory.NewSessionRepository(0, 10*time.Millisecond))

	s := m.LoadOrCreate("s1")
	m.SetMode(s, store.ModeDocument)
	s.Log.AppendUser("Uploaded PDF: fir.pdf")

	time.Sleep(80 * time.Millisecond)
	again := m.LoadOrCreate("s1")

	assert.Same(t, s, again)
	assert.Equal(t, store.ModeDocument, again.Mode)
	assert.Equal(t, 1, again.Log.Len())
}

func TestSessionExpiresWithTTL(t *testing.T) {
	m := NewManager(memory.NewSessionRepository(30*time.Millisecond, 10*time.Millisecond))

	s := m.LoadOrCreate("s1")
	m.SetMode(s, store.ModeDocument)

	time.Sleep(80 * time.Millisecond)
	_, found := m.Find("s1")

	assert.False(t, found)
}
