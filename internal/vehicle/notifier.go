package vehicle

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

// UpdateListener is invoked after an applied update changed a vehicle's
// state. Listeners must not block; failures are logged and never propagate
// into the update pipeline.
type UpdateListener func()

// Subscription is an opaque handle identifying one registered listener.
type Subscription uint64

type subscriber struct {
	handle   Subscription
	listener UpdateListener
}

// Notifier fans out change notifications to the listeners registered for a
// vehicle, synchronously and in registration order.
type Notifier struct {
	mu     sync.Mutex
	next   Subscription
	owners map[Subscription]string
	subs   map[string][]subscriber
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		owners: make(map[Subscription]string),
		subs:   make(map[string][]subscriber),
	}
}

// Subscribe registers a listener for the given vehicle and returns a handle
// for later removal.
func (n *Notifier) Subscribe(vehicleID string, listener UpdateListener) Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	handle := n.next

	n.owners[handle] = vehicleID
	n.subs[vehicleID] = append(n.subs[vehicleID], subscriber{handle: handle, listener: listener})

	return handle
}

// Unsubscribe removes the listener identified by the handle. Unknown
// handles are ignored.
func (n *Notifier) Unsubscribe(handle Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()

	vehicleID, ok := n.owners[handle]
	if !ok {
		return
	}

	delete(n.owners, handle)

	subs := n.subs[vehicleID]
	for i, sub := range subs {
		if sub.handle == handle {
			n.subs[vehicleID] = append(subs[:i], subs[i+1:]...)

			break
		}
	}

	if len(n.subs[vehicleID]) == 0 {
		delete(n.subs, vehicleID)
	}
}

// Notify invokes every listener registered for the vehicle. A panicking
// listener is logged and does not block notification of the others.
func (n *Notifier) Notify(vehicleID string) {
	n.mu.Lock()
	subs := make([]subscriber, len(n.subs[vehicleID]))
	copy(subs, n.subs[vehicleID])
	n.mu.Unlock()

	for _, sub := range subs {
		n.invoke(vehicleID, sub)
	}
}

func (n *Notifier) invoke(vehicleID string, sub subscriber) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("notifier: listener %d for vehicle %s panicked: %v", sub.handle, model.MaskVIN(vehicleID), r)
		}
	}()

	sub.listener()
}
