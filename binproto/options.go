package binproto

const (
	// VersionMask selects the version magic from a message header word.
	VersionMask uint32 = 0xffff0000

	// Version1 is the only accepted version magic.
	Version1 uint32 = 0x80010000

	// DefaultRecursionDepth bounds nesting for Skip and generic decoding.
	DefaultRecursionDepth = 64
)

// Option is a functional option for a Reader.
type Option func(*Options)

// Options contains Reader configuration.
type Options struct {
	MaxDepth        int
	MaxStringLength int
}

func defaultOptions() Options {
	return Options{
		MaxDepth: DefaultRecursionDepth,
	}
}

// WithMaxDepth sets the capacity of the skip stack, and the nesting limit
// reported to generic decoders.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		if depth > 0 {
			opts.MaxDepth = depth
		}
	}
}

// WithMaxStringLength rejects string and binary values declaring more than n
// bytes with ErrInvalidDataLength. Zero means no limit beyond the bytes
// available.
func WithMaxStringLength(n int) Option {
	return func(opts *Options) {
		if n >= 0 {
			opts.MaxStringLength = n
		}
	}
}
