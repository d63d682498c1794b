package session

import (
	"errors"
	"sync"
	"time"

	"drill-talk/internal/model"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyActive 同一学员同时只允许一个会话。
	ErrAlreadyActive = errors.New("session already active")
)

// Store 按学员 ID 保存活跃会话。
//
// 内存实现：重启即丢会话，但成绩记录另有持久化（internal/score），
// 丢掉的只是进行到一半的对话，学员重新开始训练即可。
type Store struct {
	mu   sync.RWMutex
	data map[string]*model.Session

	// locks 学员级互斥锁。同一学员的消息严格串行处理，
	// 不同学员的回合可以并发推进。锁条目随会话删除一起清理。
	locksMu sync.Mutex
	locks   map[string]*traineeLock
}

type traineeLock struct {
	mu sync.Mutex
	// refs 持有或等待该锁的 goroutine 数，归零即可回收条目。
	refs int
}

func NewStore() *Store {
	return &Store{
		data:  make(map[string]*model.Session),
		locks: make(map[string]*traineeLock),
	}
}

// Lock 获取学员级互斥锁。调用方必须配对调用 Unlock。
func (s *Store) Lock(traineeID string) {
	s.locksMu.Lock()
	l, ok := s.locks[traineeID]
	if !ok {
		l = &traineeLock{}
		s.locks[traineeID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
}

// Unlock 释放学员级互斥锁。
func (s *Store) Unlock(traineeID string) {
	s.locksMu.Lock()
	l, ok := s.locks[traineeID]
	if ok {
		l.refs--
		if l.refs == 0 {
			delete(s.locks, traineeID)
		}
	}
	s.locksMu.Unlock()

	if ok {
		l.mu.Unlock()
	}
}

// Create 为学员创建新会话。已有活跃会话时返回 ErrAlreadyActive。
func (s *Store) Create(traineeID, displayName string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[traineeID]; ok {
		return nil, ErrAlreadyActive
	}

	sess := &model.Session{
		TraineeID:   traineeID,
		DisplayName: displayName,
		Status:      model.StatusAwaitingCourse,
		StartedAt:   time.Now(),
	}
	s.data[traineeID] = sess
	return sess, nil
}

// Replace 无条件重建学员会话，旧会话（如有）被废弃。
func (s *Store) Replace(traineeID, displayName string) *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &model.Session{
		TraineeID:   traineeID,
		DisplayName: displayName,
		Status:      model.StatusAwaitingCourse,
		StartedAt:   time.Now(),
	}
	s.data[traineeID] = sess
	return sess
}

// Get 查找学员的活跃会话。
func (s *Store) Get(traineeID string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.data[traineeID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete 移除学员会话。会话终止后调用。
func (s *Store) Delete(traineeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, traineeID)
}

// Len 返回当前活跃会话数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
