package signalr

import (
	"github.com/philippseith/signalr"

	"github.com/connectedcar/edge-vehicle-adapter/internal/model"
)

type receiver struct {
	signalr.Receiver

	frames chan model.Frame
}

func newReceiver() *receiver {
	return &receiver{
		frames: make(chan model.Frame, 100),
	}
}

// VehicleUpdate is invoked by the hub for every telemetry frame.
func (r *receiver) VehicleUpdate(f model.Frame) {
	r.frames <- f
}

func (r *receiver) frameC() <-chan model.Frame {
	return r.frames
}
