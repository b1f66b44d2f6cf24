package msgpack

// Default size guards, checked against an announced raw/array/map size
// before any allocation proportional to that size is made.
const (
	DefaultRawLimit   = 1 << 27 // 128 MiB
	DefaultArrayLimit = 1 << 22 // 4 Mi elements
	DefaultMapLimit   = 1 << 21 // 2 Mi entries
)

// Limits bounds the sizes a Decoder will accept for raw bodies, array
// headers, and map headers, so that a hostile stream can't force an
// allocation proportional to an attacker-chosen size before the decoder
// has read a single byte of the payload.
type Limits struct {
	Raw   int
	Array int
	Map   int
}

// DefaultLimits returns the limits a Decoder uses unless overridden.
func DefaultLimits() Limits {
	return Limits{
		Raw:   DefaultRawLimit,
		Array: DefaultArrayLimit,
		Map:   DefaultMapLimit,
	}
}

func (l Limits) normalize() Limits {
	if l.Raw <= 0 {
		l.Raw = DefaultRawLimit
	}
	if l.Array <= 0 {
		l.Array = DefaultArrayLimit
	}
	if l.Map <= 0 {
		l.Map = DefaultMapLimit
	}
	return l
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithLimits overrides the default raw/array/map size guards.
func WithLimits(l Limits) Option {
	return func(d *Decoder) {
		d.limits = l.normalize()
	}
}

// WithRawLimit overrides only the raw-body size guard.
func WithRawLimit(n int) Option {
	return func(d *Decoder) { d.limits.Raw = n }
}

// WithArrayLimit overrides only the array-header size guard.
func WithArrayLimit(n int) Option {
	return func(d *Decoder) { d.limits.Array = n }
}

// WithMapLimit overrides only the map-header size guard.
func WithMapLimit(n int) Option {
	return func(d *Decoder) { d.limits.Map = n }
}
