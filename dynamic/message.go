package dynamic

import (
	"fmt"

	"github.com/wkalt/tbin/binproto"
)

// Message is a message envelope with a schema-less body.
type Message struct {
	Name  string
	Type  binproto.MessageType
	SeqID uint32
	Body  *Struct
}

// Encode writes the message. A nil body is written as an empty struct.
func (m *Message) Encode(w *binproto.Writer) {
	w.WriteMessageBegin(m.Name, m.Type, m.SeqID)
	body := m.Body
	if body == nil {
		body = &Struct{}
	}
	WriteStruct(w, body)
	w.WriteMessageEnd()
}

// Decode reads a message.
func (m *Message) Decode(r *binproto.Reader) error {
	name, typ, seqid, err := r.ReadMessageBegin()
	if err != nil {
		return err
	}
	body, err := ReadStruct(r)
	if err != nil {
		return fmt.Errorf("failed to read body of %q: %w", name, err)
	}
	if err := r.ReadMessageEnd(); err != nil {
		return err
	}
	m.Name = name
	m.Type = typ
	m.SeqID = seqid
	m.Body = body
	return nil
}
