// Package ipp implements the small subset of the IPP/1.1 binary encoding
// needed to submit a Print-Job operation and read the operation outcome.
package ipp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	versionMajor byte = 1
	versionMinor byte = 1
)

// Operation identifiers.
const (
	OpPrintJob uint16 = 0x0002
)

// Delimiter and value tags.
const (
	TagOperationAttrs byte = 0x01
	TagEndOfAttrs     byte = 0x03

	TagInteger         byte = 0x21
	TagEnum            byte = 0x23
	TagText            byte = 0x41
	TagName            byte = 0x42
	TagKeyword         byte = 0x44
	TagURI             byte = 0x45
	TagCharset         byte = 0x47
	TagNaturalLanguage byte = 0x48
	TagMimeMediaType   byte = 0x49
)

// Status codes below 0x0100 are informational or successful-ok variants.
const statusSuccessLimit uint16 = 0x0100

var (
	ErrTruncated  = errors.New("ipp: truncated message")
	ErrBadVersion = errors.New("ipp: unsupported version")
)

type attribute struct {
	tag   byte
	name  string
	value string
}

// Request is an outbound IPP operation request. Operation attributes are
// encoded in insertion order; attributes-charset and
// attributes-natural-language must come first, which NewRequest ensures.
type Request struct {
	Operation uint16
	RequestID uint32
	Document  []byte

	attrs []attribute
}

func NewRequest(op uint16, requestID uint32) *Request {
	r := &Request{Operation: op, RequestID: requestID}
	r.Add(TagCharset, "attributes-charset", "utf-8")
	r.Add(TagNaturalLanguage, "attributes-natural-language", "en")
	return r
}

// Add appends one operation attribute.
func (r *Request) Add(tag byte, name, value string) {
	r.attrs = append(r.attrs, attribute{tag: tag, name: name, value: value})
}

// Encode serializes the request followed by the document data.
func (r *Request) Encode() []byte {
	var buf bytes.Buffer

	buf.WriteByte(versionMajor)
	buf.WriteByte(versionMinor)
	writeUint16(&buf, r.Operation)
	writeUint32(&buf, r.RequestID)

	buf.WriteByte(TagOperationAttrs)
	for _, a := range r.attrs {
		buf.WriteByte(a.tag)
		writeUint16(&buf, uint16(len(a.name)))
		buf.WriteString(a.name)
		writeUint16(&buf, uint16(len(a.value)))
		buf.WriteString(a.value)
	}
	buf.WriteByte(TagEndOfAttrs)

	buf.Write(r.Document)
	return buf.Bytes()
}

// Response is the decoded outcome of one IPP exchange. Only the status
// code and the optional status-message attribute are interpreted.
type Response struct {
	Version       [2]byte
	StatusCode    uint16
	RequestID     uint32
	StatusMessage string
}

// Successful reports whether the status code is in the informational or
// successful-ok range. Partial-success codes count as success here.
func (r *Response) Successful() bool {
	return r.StatusCode < statusSuccessLimit
}

// DecodeResponse parses an IPP response header and scans the attribute
// groups for a status-message. Unknown attributes are skipped; anything
// after end-of-attributes is ignored.
func DecodeResponse(data []byte) (*Response, error) {
	if len(data) < 8 {
		return nil, ErrTruncated
	}
	resp := &Response{
		Version:    [2]byte{data[0], data[1]},
		StatusCode: binary.BigEndian.Uint16(data[2:4]),
		RequestID:  binary.BigEndian.Uint32(data[4:8]),
	}
	if data[0] != versionMajor {
		return nil, fmt.Errorf("%w: %d.%d", ErrBadVersion, data[0], data[1])
	}

	pos := 8
	for pos < len(data) {
		tag := data[pos]
		pos++
		if tag == TagEndOfAttrs {
			break
		}
		if tag < 0x10 {
			// Delimiter tag starting the next attribute group.
			continue
		}

		name, next, err := readLengthValue(data, pos)
		if err != nil {
			return nil, err
		}
		value, next, err := readLengthValue(data, next)
		if err != nil {
			return nil, err
		}
		pos = next

		if name == "status-message" {
			resp.StatusMessage = value
		}
	}

	return resp, nil
}

func readLengthValue(data []byte, pos int) (string, int, error) {
	if pos+2 > len(data) {
		return "", 0, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(data[pos : pos+2]))
	pos += 2
	if pos+n > len(data) {
		return "", 0, ErrTruncated
	}
	return string(data[pos : pos+n]), pos + n, nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
