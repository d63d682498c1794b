package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"drill-talk/internal/model"
)

func TestCreateAndGet(t *testing.T) {
	s := NewStore()

	sess, err := s.Create("t1", "小张")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Status != model.StatusAwaitingCourse {
		t.Fatalf("expected awaiting_course, got %s", sess.Status)
	}

	got, err := s.Get("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != sess {
		t.Fatal("get should return the same session")
	}
}

// 同一学员同时至多一个会话。
func TestCreateRejectsSecondSession(t *testing.T) {
	s := NewStore()
	if _, err := s.Create("t1", "小张"); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := s.Create("t1", "小张")
	if !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestReplaceDiscardsOldSession(t *testing.T) {
	s := NewStore()
	old, _ := s.Create("t1", "小张")
	old.TurnCount = 5

	sess := s.Replace("t1", "小张")
	if sess == old {
		t.Fatal("replace should build a fresh session")
	}
	if sess.TurnCount != 0 {
		t.Fatalf("fresh session should have zero turns, got %d", sess.TurnCount)
	}
}

func TestDeleteThenGet(t *testing.T) {
	s := NewStore()
	if _, err := s.Create("t1", "小张"); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.Delete("t1")
	if _, err := s.Get("t1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

// 学员级锁：同一学员的操作严格串行，临界区不交错。
func TestLockSerializesSameTrainee(t *testing.T) {
	s := NewStore()

	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock("t1")
			defer s.Unlock("t1")

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("critical sections interleaved: max concurrency %d", maxInCritical)
	}
}

// 不同学员之间不能互相阻塞。
func TestLockIndependentTrainees(t *testing.T) {
	s := NewStore()
	s.Lock("t1")
	defer s.Unlock("t1")

	done := make(chan struct{})
	go func() {
		s.Lock("t2")
		s.Unlock("t2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on t2 blocked by t1")
	}
}

// 锁条目随使用结束回收，不随学员数量无限增长。
func TestLockEntriesReclaimed(t *testing.T) {
	s := NewStore()
	for i := 0; i < 100; i++ {
		id := "t" + string(rune('a'+i%26))
		s.Lock(id)
		s.Unlock(id)
	}

	s.locksMu.Lock()
	n := len(s.locks)
	s.locksMu.Unlock()
	if n != 0 {
		t.Fatalf("expected all lock entries reclaimed, %d left", n)
	}
}
