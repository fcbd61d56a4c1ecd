// internal/services/progress_service.go
package services

import (
	"fmt"
	"sync"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ProgressFunc receives stage updates while an analysis runs.
type ProgressFunc func(progress int, message string)

func (f ProgressFunc) report(progress int, message string) {
	if f != nil {
		f(progress, message)
	}
}

// ProgressUpdate 表示进度更新
type ProgressUpdate struct {
	Progress int    `json:"progress"` // 0-100
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// ProgressTracker follows one analysis request.
type ProgressTracker struct {
	TaskID     string
	Progress   int
	Message    string
	Status     string
	StartTime  time.Time
	UpdateTime time.Time
	Done       chan struct{}

	subscribers map[chan ProgressUpdate]struct{}
	finished    bool
	mutex       sync.Mutex
}

// ProgressService 管理所有进度跟踪器
type ProgressService struct {
	trackers map[string]*ProgressTracker
	mutex    sync.RWMutex
}

func NewProgressService() *ProgressService {
	return &ProgressService{trackers: make(map[string]*ProgressTracker)}
}

// CreateTracker returns the tracker for taskID, creating it if needed.
func (s *ProgressService) CreateTracker(taskID string) *ProgressTracker {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if tracker, exists := s.trackers[taskID]; exists {
		return tracker
	}

	now := time.Now()
	tracker := &ProgressTracker{
		TaskID:      taskID,
		Message:     "queued",
		Status:      StatusRunning,
		StartTime:   now,
		UpdateTime:  now,
		Done:        make(chan struct{}),
		subscribers: make(map[chan ProgressUpdate]struct{}),
	}
	s.trackers[taskID] = tracker
	return tracker
}

func (s *ProgressService) GetTracker(taskID string) (*ProgressTracker, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	tracker, exists := s.trackers[taskID]
	return tracker, exists
}

func (s *ProgressService) Remove(taskID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.trackers, taskID)
}

// CleanupCompletedTasks drops finished trackers idle for longer than maxAge.
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	now := time.Now()
	for id, tracker := range s.trackers {
		tracker.mutex.Lock()
		stale := tracker.finished && now.Sub(tracker.UpdateTime) > maxAge
		tracker.mutex.Unlock()

		if stale {
			delete(s.trackers, id)
			removed++
		}
	}
	return removed
}

// Reporter adapts the tracker to a ProgressFunc.
func (t *ProgressTracker) Reporter() ProgressFunc {
	return t.UpdateProgress
}

// UpdateProgress never moves progress backwards and is ignored once finished.
func (t *ProgressTracker) UpdateProgress(progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.finished {
		return
	}
	if progress > t.Progress {
		t.Progress = min(progress, 100)
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
}

func (t *ProgressTracker) Complete(message string) {
	t.finish(StatusCompleted, 100, message)
}

func (t *ProgressTracker) Fail(errorMsg string) {
	t.finish(StatusFailed, -1, fmt.Sprintf("analysis failed: %s", errorMsg))
}

func (t *ProgressTracker) finish(status string, progress int, message string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.finished {
		return
	}
	t.finished = true
	t.Status = status
	if progress >= 0 {
		t.Progress = progress
	}
	if message != "" {
		t.Message = message
	}
	t.UpdateTime = time.Now()
	t.broadcast()
	close(t.Done)
}

// broadcast must be called with mutex held. Full subscriber buffers drop the update.
func (t *ProgressTracker) broadcast() {
	update := t.snapshot()
	for subscriber := range t.subscribers {
		select {
		case subscriber <- update:
		default:
		}
	}
}

func (t *ProgressTracker) snapshot() ProgressUpdate {
	return ProgressUpdate{Progress: t.Progress, Message: t.Message, Status: t.Status}
}

// Snapshot returns the current state.
func (t *ProgressTracker) Snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.snapshot()
}

// Subscribe returns a buffered channel primed with the current state.
func (t *ProgressTracker) Subscribe() chan ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	subscriber := make(chan ProgressUpdate, 16)
	t.subscribers[subscriber] = struct{}{}
	subscriber <- t.snapshot()
	return subscriber
}

func (t *ProgressTracker) Unsubscribe(subscriber chan ProgressUpdate) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.subscribers[subscriber]; ok {
		delete(t.subscribers, subscriber)
		close(subscriber)
	}
}
