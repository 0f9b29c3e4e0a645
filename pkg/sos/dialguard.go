package sos

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DialGuard remembers which phones were dialed for an incident within the guard window, so the
// cascade call channel and the escalation dialer never ring the same person twice in a row.
type DialGuard struct {
	dialed *cache.Cache
}

func NewDialGuard(window time.Duration) *DialGuard {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &DialGuard{dialed: cache.New(window, 2*window)}
}

func guardKey(incidentID, phone string) string {
	return incidentID + "|" + phone
}

func (g *DialGuard) Recently(incidentID, phone string) bool {
	_, found := g.dialed.Get(guardKey(incidentID, phone))
	return found
}

// TryMark claims the phone for this incident. It returns false if it was already claimed
// within the window.
func (g *DialGuard) TryMark(incidentID, phone string) bool {
	return g.dialed.Add(guardKey(incidentID, phone), time.Now(), cache.DefaultExpiration) == nil
}

func (g *DialGuard) Forget(incidentID, phone string) {
	g.dialed.Delete(guardKey(incidentID, phone))
}

func (g *DialGuard) DeleteExpired() {
	g.dialed.DeleteExpired()
}
