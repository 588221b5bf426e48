package guidance

import (
	"fmt"
	"image"
	"math"
)

// Direction is a discrete steering command.
type Direction int

const (
	// Hold means the target is inside the dead-zone, or there is no target.
	Hold Direction = iota
	Left
	Right
)

var directionNames = [...]string{Hold: "HOLD", Left: "LEFT", Right: "RIGHT"}

// String returns HOLD, LEFT or RIGHT.
func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	for i, name := range directionNames {
		if string(text) == name {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("guidance: unknown direction %q", text)
}

// Command is the per-frame guidance output.
type Command struct {
	Direction Direction    `json:"direction"`
	Angle     int          `json:"angle"`            // Degrees from boresight, negative to the left
	Target    *image.Point `json:"target,omitempty"` // Target center, nil without a target
}

// HasTarget reports whether the command was computed from a target.
func (c Command) HasTarget() bool {
	return c.Target != nil
}

// Decide converts the target position into an angle and a steering
// direction. Each call depends only on its arguments.
// The hold band is centred on the integer pixel center frameWidth/2, which
// for odd widths is half a pixel left of the true center used for
// LEFT/RIGHT.
func Decide(target *Detection, frameWidth, frameHeight int, fovDegrees float64, sightHalfWidth int) (Command, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return Command{}, &FrameError{Width: frameWidth, Height: frameHeight}
	}
	if target == nil {
		return Command{Direction: Hold}, nil
	}

	cx := int(math.Round((target.Box.Left + target.Box.Right) / 2))
	cy := int(math.Round((target.Box.Top + target.Box.Bottom) / 2))

	cmd := Command{
		Angle:  Angle(cx, frameWidth, fovDegrees),
		Target: &image.Point{X: cx, Y: cy},
	}

	// The steering side is measured from the true center; the hold band
	// from the integer pixel center. Both tests are kept separate.
	if float64(cx) > float64(frameWidth)/2 {
		cmd.Direction = Right
	} else {
		cmd.Direction = Left
	}
	mid := frameWidth / 2
	if mid-sightHalfWidth <= cx && cx <= mid+sightHalfWidth {
		cmd.Direction = Hold
	}

	return cmd, nil
}

// Angle maps a horizontal pixel position to degrees from boresight with a
// linear, uniform-FOV camera model.
func Angle(x, frameWidth int, fovDegrees float64) int {
	return int(math.Floor(float64(x)*fovDegrees/float64(frameWidth) - fovDegrees/2))
}
