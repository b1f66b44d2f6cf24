// Command mpdump walks a MessagePack stream and prints one line per
// decoded value, recursing into array and map headers. It exists mainly
// to give the decoder's typed read surface a caller outside its own test
// suite.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mpcore/msgpack"
)

type dumpOptions struct {
	rawLimit   int
	arrayLimit int
	mapLimit   int
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts dumpOptions

	cmd := &cobra.Command{
		Use:   "mpdump [FILE]",
		Short: "Dump a MessagePack stream as a trace of decoded values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.verbose)
			defer logger.Sync()

			r, closeFn, err := openInput(args)
			if err != nil {
				return err
			}
			defer closeFn()

			d := msgpack.NewDecoder(r,
				msgpack.WithRawLimit(opts.rawLimit),
				msgpack.WithArrayLimit(opts.arrayLimit),
				msgpack.WithMapLimit(opts.mapLimit),
			)
			defer d.Close()

			return dumpStream(cmd.OutOrStdout(), logger, d)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.rawLimit, "raw-limit", msgpack.DefaultRawLimit, "maximum accepted raw body size in bytes")
	flags.IntVar(&opts.arrayLimit, "array-limit", msgpack.DefaultArrayLimit, "maximum accepted array element count")
	flags.IntVar(&opts.mapLimit, "map-limit", msgpack.DefaultMapLimit, "maximum accepted map entry count")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug-level logging")

	return cmd
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// dumpStream reads values from d until the stream is exhausted, printing
// one line per scalar and recursing into array/map headers. End of stream
// is only "clean" between top-level values; an EOFError raised while
// reading a nested element is a genuinely truncated stream and propagates
// as an error.
func dumpStream(w io.Writer, logger *zap.Logger, d *msgpack.Decoder) error {
	for {
		if _, err := d.NextType(); err != nil {
			if isCleanEOF(err) {
				return nil
			}
			return err
		}
		if err := dumpValue(w, logger, d, 0); err != nil {
			return err
		}
	}
}

func dumpValue(w io.Writer, logger *zap.Logger, d *msgpack.Decoder, depth int) error {
	typ, err := d.NextType()
	if err != nil {
		return err
	}
	logger.Debug("next value", zap.String("type", typ.String()), zap.Int("depth", depth))

	indent := indentFor(depth)
	switch typ {
	case msgpack.NilType:
		if err := d.ReadNil(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%snil\n", indent)

	case msgpack.BooleanType:
		v, err := d.ReadBoolean()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sbool: %v\n", indent, v)

	case msgpack.IntegerType:
		// ReadBigInteger accepts int, long, and the uint64-overflow case
		// in one call, so there's no need to try a narrower read first
		// and fall back after the token is already consumed.
		v, err := d.ReadBigInteger()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sint: %s\n", indent, v.String())

	case msgpack.FloatType:
		v, err := d.ReadDouble()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sfloat: %g\n", indent, v)

	case msgpack.RawType:
		// Read the raw bytes once and decide string-vs-hex ourselves;
		// calling ReadString and falling back to ReadByteArray on
		// failure would read the next token instead of the bytes that
		// just failed UTF-8 validation, since the raw body is already
		// consumed by the time the error comes back.
		b, err := d.ReadByteArray()
		if err != nil {
			return err
		}
		if utf8.Valid(b) {
			fmt.Fprintf(w, "%sstring: %q\n", indent, string(b))
		} else {
			fmt.Fprintf(w, "%sbytes: % x\n", indent, b)
		}

	case msgpack.ArrayType:
		n, err := d.ReadArrayHeader()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%sarray[%d]\n", indent, n)
		for i := 0; i < n; i++ {
			if err := dumpValue(w, logger, d, depth+1); err != nil {
				return err
			}
		}

	case msgpack.MapType:
		n, err := d.ReadMapHeader()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%smap[%d]\n", indent, n)
		for i := 0; i < n; i++ {
			if err := dumpValue(w, logger, d, depth+1); err != nil {
				return err
			}
			if err := dumpValue(w, logger, d, depth+1); err != nil {
				return err
			}
		}

	default:
		return err
	}
	return nil
}

func indentFor(depth int) string {
	b := make([]byte, depth*2)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func isCleanEOF(err error) bool {
	var eofErr *msgpack.EOFError
	return errors.As(err, &eofErr)
}
