package sim

import (
	"context"

	"github.com/lucasb-eyer/go-colorful"

	"go.viam.com/spindexer/components/colorsensor"
	fakecolorsensor "go.viam.com/spindexer/components/colorsensor/fake"
	fakegate "go.viam.com/spindexer/components/gate/fake"
)

// Piece colors as seen by the intake color sensor.
var (
	GreenPiece  = colorful.Hsv(125, 0.7, 0.8)
	PurplePiece = colorful.Hsv(280, 0.55, 0.6)
)

// An Intake feeds queued pieces past the color sensor. While the gate is open the sensor sees
// the piece at the head of the queue; closing the gate consumes it.
type Intake struct {
	Gate   *fakegate.Gate
	Sensor *fakecolorsensor.ColorSensor
	queue  []colorful.Color
	shown  bool
}

// NewIntake returns an intake with an empty queue.
func NewIntake(bands colorsensor.Bands) *Intake {
	return &Intake{Gate: &fakegate.Gate{}, Sensor: fakecolorsensor.NewColorSensor(bands)}
}

// Feed queues pieces.
func (in *Intake) Feed(pieces ...colorful.Color) {
	in.queue = append(in.queue, pieces...)
}

// Queued returns how many pieces are waiting.
func (in *Intake) Queued() int {
	return len(in.queue)
}

// Step advances the intake by one control tick.
func (in *Intake) Step(ctx context.Context) error {
	open, err := in.Gate.IsOpen(ctx, nil)
	if err != nil {
		return err
	}
	if open && len(in.queue) > 0 {
		h, s, v := in.queue[0].Hsv()
		in.Sensor.SetHSV(h, s, v)
		in.shown = true
		return nil
	}
	if !open && in.shown {
		in.queue = in.queue[1:]
		in.shown = false
	}
	in.Sensor.SetRGB(0, 0, 0)
	return nil
}
