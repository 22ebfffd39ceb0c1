package handlers

import (
	"sync/atomic"

	applog "saboraoclique/internal/log"

	"github.com/gofiber/fiber/v2"
)

// AdminLock is the process-wide admin toggle. It hides the admin screens and
// carries no credentials.
type AdminLock struct{ locked atomic.Bool }

func NewAdminLock(locked bool) *AdminLock {
	l := &AdminLock{}
	l.locked.Store(locked)
	return l
}

func (l *AdminLock) Locked() bool { return l.locked.Load() }

// Toggle flips the lock and returns the new state.
func (l *AdminLock) Toggle() bool {
	for {
		cur := l.locked.Load()
		if l.locked.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// RequireUnlocked sends admin routes back home while the lock is on.
func RequireUnlocked(lock *AdminLock) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if lock.Locked() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Redirect("/")
		}
		return c.Next()
	}
}
