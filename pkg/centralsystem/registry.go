package centralsystem

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry maps a device id to its live session. It is the single source
// of truth for "is this device online".
type Registry struct {
	sessions map[string]*Session
	sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register stores the session under its device id. The newest connection
// wins: any prior session for the id is returned so the caller can close
// it.
func (r *Registry) Register(deviceID string, sess *Session) (prior *Session) {
	r.Lock()
	defer r.Unlock()

	prior = r.sessions[deviceID]
	r.sessions[deviceID] = sess

	log.Infof("registry: registered session for device '%s' (%d connected)", deviceID, len(r.sessions))

	return prior
}

// Lookup returns the live session for the device id.
func (r *Registry) Lookup(deviceID string) (*Session, bool) {
	r.RLock()
	defer r.RUnlock()

	sess, ok := r.sessions[deviceID]
	return sess, ok
}

// Unregister removes the entry only if it still belongs to the caller's
// session. This guards against a stale disconnect handler evicting a newer
// session for the same device.
func (r *Registry) Unregister(deviceID string, sess *Session) bool {
	r.Lock()
	defer r.Unlock()

	current, ok := r.sessions[deviceID]
	if !ok || current != sess {
		return false
	}

	delete(r.sessions, deviceID)
	log.Infof("registry: unregistered session for device '%s' (%d connected)", deviceID, len(r.sessions))

	return true
}

// Count is the externally reported connected device count.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.sessions)
}

// DeviceIDs lists the connected devices in stable order.
func (r *Registry) DeviceIDs() []string {
	r.RLock()
	defer r.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
