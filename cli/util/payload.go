package util

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	"github.com/wkalt/tbin/binproto"
	tbinutil "github.com/wkalt/tbin/util"
	"github.com/wkalt/tbin/util/bufext"
)

/*
Payload validation walks the envelope and skips the body, checking framing
without decoding anything into memory. It answers whether a peer could parse
the payload at all, given the reader limits, not whether it matches any
particular schema.
*/

////////////////////////////////////////////////////////////////////////////////

// Summary describes a payload that passed validation.
type Summary struct {
	Name        string
	Type        binproto.MessageType
	SeqID       uint32
	Size        int
	Fingerprint uint32
}

// HumanSize renders the payload size for display.
func (s Summary) HumanSize() string {
	return tbinutil.HumanBytes(s.Size)
}

// Fingerprint returns a murmur3 hash of the payload.
func Fingerprint(data []byte) uint32 {
	return murmur3.Sum32(data)
}

// ValidateMessage checks that data is exactly one message: a header, a struct
// body and nothing after it.
func ValidateMessage(data []byte, opts ...binproto.Option) (Summary, error) {
	r := binproto.NewReader(bufext.NewSliceSource(data), opts...)
	name, typ, seqid, err := r.ReadMessageBegin()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read message header: %w", err)
	}
	if err := r.Skip(binproto.STRUCT); err != nil {
		return Summary{}, fmt.Errorf("failed to skip body of %q: %w", name, err)
	}
	if err := r.ReadMessageEnd(); err != nil {
		return Summary{}, err
	}
	if n := r.Remaining(); n > 0 {
		return Summary{}, fmt.Errorf("%d trailing bytes after message %q", n, name)
	}
	return Summary{
		Name:        name,
		Type:        typ,
		SeqID:       seqid,
		Size:        len(data),
		Fingerprint: Fingerprint(data),
	}, nil
}

// ValidateStruct checks that data is exactly one bare struct.
func ValidateStruct(data []byte, opts ...binproto.Option) (Summary, error) {
	r := binproto.NewReader(bufext.NewSliceSource(data), opts...)
	if err := r.Skip(binproto.STRUCT); err != nil {
		return Summary{}, fmt.Errorf("failed to skip struct: %w", err)
	}
	if n := r.Remaining(); n > 0 {
		return Summary{}, fmt.Errorf("%d trailing bytes after struct", n)
	}
	return Summary{Size: len(data), Fingerprint: Fingerprint(data)}, nil
}
