package centralsystem

import (
	log "github.com/sirupsen/logrus"
)

// registerSession puts a new session into the registry. A prior session
// for the same device id is closed afterwards: the newest connection wins
// and the old socket is torn down.
func (ctrl *Controller) registerSession(sess *Session) {
	prior := ctrl.registry.Register(sess.deviceID, sess)
	if prior != nil {
		log.Infof("charge point '%s' reconnected, closing the prior session", sess.deviceID)
		prior.terminate()
	}

	log.Infof("charge point '%s' connected (%d total)", sess.deviceID, ctrl.registry.Count())
	ctrl.publishConnectionEvent("connected", sess.deviceID)
}

// unregisterSession removes a session from the registry, but only when the
// registered session still is this one. A session replaced by a newer
// connection must not remove its successor on the way out.
func (ctrl *Controller) unregisterSession(sess *Session) {
	if !ctrl.registry.Unregister(sess.deviceID, sess) {
		log.Debugf("charge point '%s' session already replaced, keeping registry entry", sess.deviceID)
		return
	}

	log.Infof("charge point '%s' disconnected (%d total)", sess.deviceID, ctrl.registry.Count())
	ctrl.publishConnectionEvent("disconnected", sess.deviceID)
}
