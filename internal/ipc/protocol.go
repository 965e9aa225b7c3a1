package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrameSize bounds a single length-prefixed message.
const maxFrameSize = 64 * 1024

// RequestType identifies what a control request asks the window to do.
type RequestType uint32

const (
	RequestUnknown RequestType = iota
	RequestFullscreen
	RequestScheduleUpdate
	RequestQuit
)

func (t RequestType) String() string {
	switch t {
	case RequestFullscreen:
		return "fullscreen"
	case RequestScheduleUpdate:
		return "schedule_update"
	case RequestQuit:
		return "quit"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Field numbers of the wire messages.
const (
	fieldRequestType       protowire.Number = 1
	fieldRequestFullscreen protowire.Number = 2

	fieldResponseOK    protowire.Number = 1
	fieldResponseError protowire.Number = 2
)

// Request is a control request sent to a running window.
type Request struct {
	Type       RequestType
	Fullscreen bool
}

// Response acknowledges a Request.
type Response struct {
	OK    bool
	Error string
}

// Marshal encodes the request in protobuf wire format.
func (r Request) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldRequestType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Type))
	if r.Fullscreen {
		b = protowire.AppendTag(b, fieldRequestFullscreen, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

// UnmarshalRequest decodes a request. Unknown fields are skipped.
func UnmarshalRequest(b []byte) (Request, error) {
	var r Request
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRequestType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Type = RequestType(v)
			return n, nil
		case num == fieldRequestFullscreen && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Fullscreen = protowire.DecodeBool(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return r, err
}

// Marshal encodes the response in protobuf wire format.
func (r Response) Marshal() []byte {
	var b []byte
	if r.OK {
		b = protowire.AppendTag(b, fieldResponseOK, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if r.Error != "" {
		b = protowire.AppendTag(b, fieldResponseError, protowire.BytesType)
		b = protowire.AppendString(b, r.Error)
	}
	return b
}

// UnmarshalResponse decodes a response. Unknown fields are skipped.
func UnmarshalResponse(b []byte) (Response, error) {
	var r Response
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldResponseOK && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.OK = protowire.DecodeBool(v)
			return n, nil
		case num == fieldResponseError && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.Error = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return r, err
}

func consumeFields(b []byte, field func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

// writeFrame writes data with a 4-byte big endian length prefix.
func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("message of %d bytes exceeds %d", len(data), maxFrameSize)
	}
	length := uint32(len(data)) //nolint:gosec // bounded by maxFrameSize
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write message data: %w", err)
	}
	return nil
}

var errFrameTooLarge = errors.New("message exceeds maximum frame size")

// readFrame reads one length-prefixed message.
func readFrame(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", errFrameTooLarge, length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read message data: %w", err)
	}
	return data, nil
}
