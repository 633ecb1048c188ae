// © Copyright 2025-2026, Granite Data - https://granite-data.dev
// SPDX-License-Identifier: Apache-2.0

package granite

import "context"

// Time values are stored server-side as plain int64 arrays of nanoseconds.
// DatetimeHandle and TimedeltaHandle are thin typed views over such an
// array: the view carries no server state of its own, only the registry
// type tag that lets Attach reconstruct the right kind.

// timeUnits maps an epoch unit name to its nanosecond factor. Long-form
// aliases normalize to the short names before lookup.
var timeUnits = map[string]int64{
	"w":  7 * 24 * 60 * 60 * 1_000_000_000,
	"d":  24 * 60 * 60 * 1_000_000_000,
	"h":  60 * 60 * 1_000_000_000,
	"m":  60 * 1_000_000_000,
	"s":  1_000_000_000,
	"ms": 1_000_000,
	"us": 1_000,
	"ns": 1,
}

var timeUnitAliases = map[string]string{
	"weeks":        "w",
	"days":         "d",
	"hours":        "h",
	"minutes":      "m",
	"seconds":      "s",
	"milliseconds": "ms",
	"microseconds": "us",
	"nanoseconds":  "ns",
}

// UnitFactor returns the nanosecond multiplier for a time unit. Both short
// ("s", "ms") and long ("seconds", "milliseconds") spellings are accepted.
func UnitFactor(unit string) (int64, error) {
	if norm, ok := timeUnitAliases[unit]; ok {
		unit = norm
	}
	factor, ok := timeUnits[unit]
	if !ok {
		return 0, valueErrorf("unknown time unit %q", unit)
	}
	return factor, nil
}

// timeValues validates the backing array of a time view.
func timeValues(values *ArrayHandle) (*ArrayHandle, error) {
	if values == nil {
		return nil, typeErrorf("time values must not be nil")
	}
	if values.DType() != Int64 {
		return nil, typeErrorf("time values must be int64, got %s", values.DType())
	}
	return values, nil
}

// DatetimeHandle is a typed view of an int64 array holding absolute times
// as nanoseconds since the epoch.
type DatetimeHandle struct {
	values *ArrayHandle
}

// NewDatetime wraps an existing int64 nanosecond array as a Datetime.
func NewDatetime(values *ArrayHandle) (*DatetimeHandle, error) {
	v, err := timeValues(values)
	if err != nil {
		return nil, err
	}
	return &DatetimeHandle{values: v}, nil
}

// DatetimeArray uploads epoch values expressed in unit and returns a
// Datetime view over the normalized nanosecond array.
func (c *Client) DatetimeArray(ctx context.Context, values []int64, unit string) (*DatetimeHandle, error) {
	h, err := c.timeArray(ctx, values, unit)
	if err != nil {
		return nil, err
	}
	return &DatetimeHandle{values: h}, nil
}

// Values returns the backing nanosecond array.
func (d *DatetimeHandle) Values() *ArrayHandle { return d.values }

// Size returns the number of time points.
func (d *DatetimeHandle) Size() int64 { return d.values.Size() }

// ObjType returns the registry type tag for datetimes.
func (d *DatetimeHandle) ObjType() string { return ObjTypeDatetime }

// Destroy deallocates the backing array.
func (d *DatetimeHandle) Destroy(ctx context.Context) error {
	return d.values.Destroy(ctx)
}

func (d *DatetimeHandle) register(ctx context.Context, name string) error {
	_, err := d.values.c.send(ctx, CmdRegister,
		[]string{name, ObjTypeDatetime, d.values.name}, nil)
	return err
}

// TimedeltaHandle is a typed view of an int64 array holding durations as
// nanoseconds.
type TimedeltaHandle struct {
	values *ArrayHandle
}

// NewTimedelta wraps an existing int64 nanosecond array as a Timedelta.
func NewTimedelta(values *ArrayHandle) (*TimedeltaHandle, error) {
	v, err := timeValues(values)
	if err != nil {
		return nil, err
	}
	return &TimedeltaHandle{values: v}, nil
}

// TimedeltaArray uploads duration values expressed in unit and returns a
// Timedelta view over the normalized nanosecond array.
func (c *Client) TimedeltaArray(ctx context.Context, values []int64, unit string) (*TimedeltaHandle, error) {
	h, err := c.timeArray(ctx, values, unit)
	if err != nil {
		return nil, err
	}
	return &TimedeltaHandle{values: h}, nil
}

// Values returns the backing nanosecond array.
func (t *TimedeltaHandle) Values() *ArrayHandle { return t.values }

// Size returns the number of durations.
func (t *TimedeltaHandle) Size() int64 { return t.values.Size() }

// ObjType returns the registry type tag for timedeltas.
func (t *TimedeltaHandle) ObjType() string { return ObjTypeTimedelta }

// Destroy deallocates the backing array.
func (t *TimedeltaHandle) Destroy(ctx context.Context) error {
	return t.values.Destroy(ctx)
}

func (t *TimedeltaHandle) register(ctx context.Context, name string) error {
	_, err := t.values.c.send(ctx, CmdRegister,
		[]string{name, ObjTypeTimedelta, t.values.name}, nil)
	return err
}

// timeArray normalizes values to nanoseconds and uploads them.
func (c *Client) timeArray(ctx context.Context, values []int64, unit string) (*ArrayHandle, error) {
	factor, err := UnitFactor(unit)
	if err != nil {
		return nil, err
	}
	ns := make([]int64, len(values))
	for i, v := range values {
		ns[i] = v * factor
	}
	obj, err := c.Array(ctx, ns)
	if err != nil {
		return nil, err
	}
	return obj.(*ArrayHandle), nil
}

// datetimeFromDescriptor and timedeltaFromDescriptor rebuild time views on
// attach. The creation payload is the descriptor of the backing array.
func datetimeFromDescriptor(c *Client, create string) (*DatetimeHandle, error) {
	h, err := arrayFromDescriptor(c, create)
	if err != nil {
		return nil, err
	}
	return NewDatetime(h)
}

func timedeltaFromDescriptor(c *Client, create string) (*TimedeltaHandle, error) {
	h, err := arrayFromDescriptor(c, create)
	if err != nil {
		return nil, err
	}
	return NewTimedelta(h)
}
