package store

import (
	"slices"
	"time"
)

// ShowToast appends a new toast and schedules its removal after d. A
// non-positive d uses the store's default duration and an unknown severity
// falls back to info.
func (s *Store) ShowToast(message string, severity Severity, d time.Duration) Toast {
	if !severity.Valid() {
		severity = SeverityInfo
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d <= 0 {
		d = s.toastTTL
	}
	now := s.clock.Now()
	toast := Toast{
		ID:        s.newID(now),
		Message:   message,
		Severity:  severity,
		Duration:  d,
		CreatedAt: now,
	}

	next := s.st
	next.toasts = append(slices.Clone(s.st.toasts), toast)
	s.commit(OpShowToast, Added, next)

	if !s.closed {
		s.timers[toast.ID] = s.clock.AfterFunc(d, func() { s.expireToast(toast.ID) })
	}
	return toast
}

// DismissToast removes a toast before its timer fires
func (s *Store) DismissToast(id string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	return s.removeToast(OpDismissToast, id)
}

func (s *Store) expireToast(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.timers, id)
	s.removeToast(OpExpireToast, id)
}

// PendingToastTimers returns the number of toasts still waiting to expire
func (s *Store) PendingToastTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Store) removeToast(op, id string) Outcome {
	i := slices.IndexFunc(s.st.toasts, func(t Toast) bool { return t.ID == id })
	if i < 0 {
		return NotPresent
	}
	next := s.st
	next.toasts = slices.Delete(slices.Clone(s.st.toasts), i, i+1)
	s.commit(op, Removed, next)
	return Removed
}
