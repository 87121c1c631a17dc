package archive

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/foxglove/mcap/go/mcap"
)

/*
An archive is an MCAP file holding a sequence of encoded payloads. Payloads
are stored verbatim as MCAP messages; the file adds topics, log times,
per-channel sequence numbers, chunk compression and CRCs around them.

Each topic gets one channel per payload kind. Channels reference one of two
schemas, one for enveloped messages and one for bare structs. The schemas
carry no data, since the binary protocol is not self-describing beyond type
tags; they exist so a reader can tell the two kinds apart.
*/

////////////////////////////////////////////////////////////////////////////////

const (
	megabyte = 1024 * 1024

	// MessageEncoding is the channel message encoding for archived payloads.
	MessageEncoding = "thrift-binary"

	// SchemaEncoding is the schema encoding for archived payloads.
	SchemaEncoding = "thrift"

	MessageSchema = "tbin.Message"
	StructSchema  = "tbin.Struct"

	messageSchemaID uint16 = 1
	structSchemaID  uint16 = 2
)

// ErrUnknownSchema is returned when reading a message whose channel does not
// reference one of the archive schemas.
var ErrUnknownSchema = errors.New("unknown schema")

// Record is one archived payload.
type Record struct {
	Topic    string
	Sequence uint32
	LogTime  time.Time
	Bare     bool
	Data     []byte
}

type WriterOption func(*mcap.WriterOptions)

// WithCompression sets the chunk compression. The empty format disables it.
func WithCompression(compression mcap.CompressionFormat) WriterOption {
	return func(o *mcap.WriterOptions) {
		o.Compression = compression
	}
}

// WithChunkSize sets the target uncompressed chunk size.
func WithChunkSize(size int64) WriterOption {
	return func(o *mcap.WriterOptions) {
		o.ChunkSize = size
	}
}

// ParseCompression converts a compression name into an MCAP format.
func ParseCompression(name string) (mcap.CompressionFormat, error) {
	switch name {
	case "zstd":
		return mcap.CompressionZSTD, nil
	case "lz4":
		return mcap.CompressionLZ4, nil
	case "none", "":
		return mcap.CompressionNone, nil
	default:
		return "", fmt.Errorf("unsupported compression: %s", name)
	}
}

type channelKey struct {
	topic string
	bare  bool
}

// Writer appends records to an archive. Close must be called to write the
// summary section.
type Writer struct {
	w         *mcap.Writer
	channels  map[channelKey]uint16
	sequences map[uint16]uint32
	schemas   map[uint16]bool
}

// NewWriter returns a writer with chunking, CRCs and zstd compression enabled
// unless overridden by options.
func NewWriter(w io.Writer, options ...WriterOption) (*Writer, error) {
	opts := &mcap.WriterOptions{
		IncludeCRC:  true,
		Chunked:     true,
		ChunkSize:   4 * megabyte,
		Compression: mcap.CompressionZSTD,
	}
	for _, opt := range options {
		opt(opts)
	}
	writer, err := mcap.NewWriter(w, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build writer: %w", err)
	}
	if err := writer.WriteHeader(&mcap.Header{Library: "tbin"}); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return &Writer{
		w:         writer,
		channels:  make(map[channelKey]uint16),
		sequences: make(map[uint16]uint32),
		schemas:   make(map[uint16]bool),
	}, nil
}

func (w *Writer) channel(topic string, bare bool) (uint16, error) {
	key := channelKey{topic, bare}
	if id, ok := w.channels[key]; ok {
		return id, nil
	}
	schemaID, schemaName := messageSchemaID, MessageSchema
	if bare {
		schemaID, schemaName = structSchemaID, StructSchema
	}
	if !w.schemas[schemaID] {
		if err := w.w.WriteSchema(&mcap.Schema{
			ID:       schemaID,
			Name:     schemaName,
			Encoding: SchemaEncoding,
			Data:     []byte{},
		}); err != nil {
			return 0, fmt.Errorf("failed to write schema: %w", err)
		}
		w.schemas[schemaID] = true
	}
	if len(w.channels) == 1<<16-1 {
		return 0, fmt.Errorf("too many channels")
	}
	id := uint16(len(w.channels) + 1)
	if err := w.w.WriteChannel(&mcap.Channel{
		ID:              id,
		SchemaID:        schemaID,
		Topic:           topic,
		MessageEncoding: MessageEncoding,
		Metadata:        map[string]string{},
	}); err != nil {
		return 0, fmt.Errorf("failed to write channel: %w", err)
	}
	w.channels[key] = id
	return id, nil
}

// Add appends a payload. The record's Sequence is ignored; sequences are
// assigned per channel starting at zero.
func (w *Writer) Add(rec Record) (uint32, error) {
	id, err := w.channel(rec.Topic, rec.Bare)
	if err != nil {
		return 0, err
	}
	seq := w.sequences[id]
	nanos := uint64(rec.LogTime.UnixNano())
	if err := w.w.WriteMessage(&mcap.Message{
		ChannelID:   id,
		Sequence:    seq,
		LogTime:     nanos,
		PublishTime: nanos,
		Data:        rec.Data,
	}); err != nil {
		return 0, fmt.Errorf("failed to write message: %w", err)
	}
	w.sequences[id] = seq + 1
	return seq, nil
}

// Close finishes the archive. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// Read calls fn with each record in file order. Reading stops at the first
// error returned by fn.
func Read(r io.Reader, fn func(Record) error) error {
	reader, err := mcap.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to build reader: %w", err)
	}
	defer reader.Close()
	it, err := reader.Messages(mcap.UsingIndex(false), mcap.InOrder(mcap.FileOrder))
	if err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}
	msg := &mcap.Message{}
	for {
		schema, channel, msg, err := it.NextInto(msg)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read next message: %w", err)
		}
		if schema == nil || schema.Encoding != SchemaEncoding {
			return fmt.Errorf("%w on topic %q", ErrUnknownSchema, channel.Topic)
		}
		var bare bool
		switch schema.Name {
		case MessageSchema:
		case StructSchema:
			bare = true
		default:
			return fmt.Errorf("%w %q on topic %q", ErrUnknownSchema, schema.Name, channel.Topic)
		}
		if err := fn(Record{
			Topic:    channel.Topic,
			Sequence: msg.Sequence,
			LogTime:  time.Unix(0, int64(msg.LogTime)),
			Bare:     bare,
			Data:     slices.Clone(msg.Data),
		}); err != nil {
			return err
		}
	}
}
