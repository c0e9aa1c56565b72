// Package config defines the robot's tunables and how they are read from disk.
//
// Tunables are stored as JSON5 so tuning notes can live next to the numbers. Any key may be
// omitted; omitted keys keep their default. Unknown keys are rejected so a typo in a gain name
// does not silently leave the old value in place.
package config

import (
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"

	"go.viam.com/spindexer/behaviors"
	"go.viam.com/spindexer/subsystems/shooter"
	"go.viam.com/spindexer/subsystems/spindexer"
)

// Tunables are every value that may be changed without rebuilding.
type Tunables struct {
	Spindexer spindexer.Config `json:"spindexer"`
	Shooter   shooter.Config   `json:"shooter"`
	Behaviors behaviors.Config `json:"behaviors"`
	// TransferPower is the motor power the transfer runs at, in (0, 1].
	TransferPower float64 `json:"transfer_power"`
}

// Default returns the competition tunables.
func Default() *Tunables {
	return &Tunables{
		Spindexer:     spindexer.DefaultConfig(),
		Shooter:       shooter.DefaultConfig(),
		Behaviors:     behaviors.DefaultConfig(),
		TransferPower: 0.8,
	}
}

// Validate ensures all parts of the config are valid. Every problem is reported, not just the
// first.
func (t *Tunables) Validate() error {
	var errs error
	if err := t.Spindexer.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "spindexer"))
	}
	if err := t.Shooter.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "shooter"))
	}
	if err := t.Behaviors.Validate(); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "behaviors"))
	}
	if t.TransferPower <= 0 || t.TransferPower > 1 {
		errs = multierr.Append(errs, errors.Errorf("transfer_power must be in (0, 1], got %v", t.TransferPower))
	}
	return errs
}

// FromAttributes decodes attributes over the defaults and validates the result. Durations may
// be given as strings such as "250ms".
func FromAttributes(attributes map[string]interface{}) (*Tunables, error) {
	out := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode tunables")
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// FromReader reads tunables from a JSON5 document.
func FromReader(r io.Reader) (*Tunables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	attributes := map[string]interface{}{}
	if err := json5.Unmarshal(data, &attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode tunables from json5")
	}
	return FromAttributes(attributes)
}

// Read reads tunables from the file at path.
func Read(path string) (*Tunables, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	t, err := FromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return t, nil
}
