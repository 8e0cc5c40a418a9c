package vehicle

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

// Attribute is the smallest unit of telemetry: a value with a retrieval
// status and the timestamp of its last successful update.
type Attribute struct {
	Value     any
	Status    model.RetrievalStatus
	UpdatedAt time.Time
}

// Features holds per-vehicle command capability flags keyed by command name.
type Features map[string]bool

// Supports reports whether a command capability is available. Missing
// entries default to unavailable.
func (f Features) Supports(name string) bool {
	return f[name]
}

// Vehicle is the attribute tree for a single vehicle. It is mutated only by
// the poll and push synchronizers and read concurrently by consumers.
type Vehicle struct {
	mu sync.RWMutex

	id           string
	licensePlate string
	isOwner      bool
	features     Features

	attributes       map[string]map[string]map[string]Attribute
	lastPushReceived time.Time
	changed          bool
}

// New creates an empty vehicle state for the given identifier (VIN, or FIN
// when the master data carries no VIN).
func New(id string) *Vehicle {
	return &Vehicle{
		id:         id,
		features:   make(Features),
		attributes: make(map[string]map[string]map[string]Attribute),
	}
}

// ID returns the immutable identity key of the vehicle.
func (v *Vehicle) ID() string {
	return v.id
}

// LicensePlate returns the display identity of the vehicle. A blank plate
// falls back to the vehicle identifier.
func (v *Vehicle) LicensePlate() string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.licensePlate
}

// IsOwner reports whether the account owns the vehicle.
func (v *Vehicle) IsOwner() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.isOwner
}

// SetMetadata refreshes vehicle-level master data.
func (v *Vehicle) SetMetadata(licensePlate string, isOwner bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if strings.TrimSpace(licensePlate) == "" {
		licensePlate = v.id
	}

	v.licensePlate = licensePlate
	v.isOwner = isOwner
}

// Features returns a copy of the command capability flags.
func (v *Vehicle) Features() Features {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make(Features, len(v.features))
	for name, available := range v.features {
		out[name] = available
	}

	return out
}

// SetFeatures replaces the command capability flags.
func (v *Vehicle) SetFeatures(features Features) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.features = features
}

// Apply folds a single attribute update into the tree. When enforceOrder is
// set, an update whose timestamp is not newer than the cell's current
// UpdatedAt is ignored; without it the update is authoritative and always
// applies. Unknown key segments are created on demand. The return value
// reports whether the cell's observable state changed.
func (v *Vehicle) Apply(feature, object, attribute string, value any, status model.RetrievalStatus, ts time.Time, enforceOrder bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	objects, ok := v.attributes[feature]
	if !ok {
		objects = make(map[string]map[string]Attribute)
		v.attributes[feature] = objects
	}

	cells, ok := objects[object]
	if !ok {
		cells = make(map[string]Attribute)
		objects[object] = cells
	}

	cell, exists := cells[attribute]
	if exists && enforceOrder && !ts.After(cell.UpdatedAt) {
		return false
	}

	updatedAt := ts
	if exists && cell.UpdatedAt.After(updatedAt) {
		updatedAt = cell.UpdatedAt
	}

	next := Attribute{Value: value, Status: status, UpdatedAt: updatedAt}
	cells[attribute] = next

	if !exists || next.Status != cell.Status || !reflect.DeepEqual(next.Value, cell.Value) {
		v.changed = true

		return true
	}

	return false
}

// Get returns the value and retrieval status of an attribute. Any absent
// key segment yields a nil value with NOT_RECEIVED status.
func (v *Vehicle) Get(feature, object, attribute string) (any, model.RetrievalStatus) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if objects, ok := v.attributes[feature]; ok {
		if cells, ok := objects[object]; ok {
			if cell, ok := cells[attribute]; ok {
				return cell.Value, cell.Status
			}
		}
	}

	return nil, model.StatusNotReceived
}

// TouchPush records the arrival of a push frame for liveness decisions.
func (v *Vehicle) TouchPush(ts time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if ts.After(v.lastPushReceived) {
		v.lastPushReceived = ts
	}
}

// LastPushReceived returns the timestamp of the most recent applied frame.
func (v *Vehicle) LastPushReceived() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.lastPushReceived
}

// ConsumeChanged reports whether any cell changed since the last call and
// clears the flag. Ingestion cycles use it to decide on notification.
func (v *Vehicle) ConsumeChanged() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := v.changed
	v.changed = false

	return changed
}
