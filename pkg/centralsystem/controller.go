package centralsystem

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Lyadalachanchu/voice4evs/pkg/guardrails"
	"github.com/Lyadalachanchu/voice4evs/pkg/scenario"
	"github.com/Lyadalachanchu/voice4evs/pkg/storage"
)

// Options carry the protocol settings of the controller.
type Options struct {
	// HeartbeatInterval is returned to every charge point with the boot
	// handshake, in seconds.
	HeartbeatInterval int

	// CallTimeout bounds the wait for a device response on the
	// administrative command path.
	CallTimeout time.Duration

	// AuditEnabled controls whether guarded actions are recorded.
	AuditEnabled bool
}

func DefaultOptions() Options {
	return Options{
		HeartbeatInterval: 60,
		CallTimeout:       16 * time.Second,
		AuditEnabled:      true,
	}
}

// Controller owns the authoritative per-device state and wires the
// guardrails, the scenario engine, the registry and the audit log into the
// command path. It is constructed once by the composition root and handed
// to every component that needs it; there is no global instance.
type Controller struct {
	nc        *nats.Conn
	store     storage.Interface
	registry  *Registry
	guard     *guardrails.Enforcer
	scenarios *scenario.Engine
	opts      Options

	nextTransactionID int32
}

func NewController(nc *nats.Conn, store storage.Interface, guard *guardrails.Enforcer,
	scenarios *scenario.Engine, opts Options) *Controller {
	return &Controller{
		nc:        nc,
		store:     store,
		registry:  NewRegistry(),
		guard:     guard,
		scenarios: scenarios,
		opts:      opts,
	}
}

// Registry exposes the connection registry, e.g. for the API status view.
func (ctrl *Controller) Registry() *Registry {
	return ctrl.registry
}

// Store exposes the device state store.
func (ctrl *Controller) Store() storage.Interface {
	return ctrl.store
}

// Scenarios exposes the scenario engine.
func (ctrl *Controller) Scenarios() *scenario.Engine {
	return ctrl.scenarios
}

// NewSession creates the session handler for a freshly upgraded websocket
// connection and registers it. A prior session for the same device id is
// replaced and closed: the newest connection wins.
func (ctrl *Controller) NewSession(deviceID string, conn net.Conn, terminateCh chan<- struct{}) *Session {
	sess := &Session{
		ctrl:          ctrl,
		deviceID:      deviceID,
		conn:          conn,
		wsTerminateCh: terminateCh,
		wsCloseCh:     make(chan struct{}),
		wsOutboxCh:    make(chan *response, 100),
		nextUniqueID:  1,
		pending:       make(map[string]chan callOutcome),
	}

	go sess.inboxWorker()
	go sess.outboxWorker()

	ctrl.registerSession(sess)

	return sess
}

func (ctrl *Controller) allocateTransactionID() int {
	return int(atomic.AddInt32(&ctrl.nextTransactionID, 1))
}
