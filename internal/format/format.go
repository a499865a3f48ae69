// Package format negotiates and writes the listing response formats.
package format

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/dtroode/weave-server/internal/apierror"
)

// Supported media types.
const (
	JSON     = "application/json"
	Newlines = "application/newlines"
	Whoisi   = "application/whoisi"
)

// ErrRecordTooLarge is returned when a whoisi record does not fit the length prefix.
var ErrRecordTooLarge = errors.New("format: record too large")

var escapedNewline = []byte(`\u000a`)

// Negotiate maps an Accept header value to a supported format. The match is
// exact; an empty value selects JSON.
func Negotiate(accept string) (string, error) {
	switch accept {
	case "", JSON:
		return JSON, nil
	case Newlines, Whoisi:
		return accept, nil
	default:
		return "", apierror.NewErrUnsupportedFormat(accept)
	}
}

// Encode writes records to w in the given format, preserving their order.
func Encode(w io.Writer, format string, records []any) error {
	switch format {
	case JSON:
		return encodeJSON(w, records)
	case Newlines:
		return encodeNewlines(w, records)
	case Whoisi:
		return encodeWhoisi(w, records)
	default:
		return apierror.NewErrUnsupportedFormat(format)
	}
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeJSON(w io.Writer, records []any) error {
	if records == nil {
		records = []any{}
	}
	data, err := marshal(records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func encodeNewlines(w io.Writer, records []any) error {
	for _, r := range records {
		data, err := marshal(r)
		if err != nil {
			return err
		}
		data = bytes.ReplaceAll(data, []byte("\n"), escapedNewline)
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func encodeWhoisi(w io.Writer, records []any) error {
	var size [4]byte
	for _, r := range records {
		data, err := marshal(r)
		if err != nil {
			return err
		}
		if uint64(len(data)) > math.MaxUint32 {
			return ErrRecordTooLarge
		}
		binary.BigEndian.PutUint32(size[:], uint32(len(data)))
		if _, err := w.Write(size[:]); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// DecodeNewlines splits a newlines body into its raw JSON records.
func DecodeNewlines(data []byte) []json.RawMessage {
	var out []json.RawMessage
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		out = append(out, json.RawMessage(line))
	}
	return out
}

// DecodeWhoisi reads length-prefixed records from r until EOF.
func DecodeWhoisi(r io.Reader) ([]json.RawMessage, error) {
	var out []json.RawMessage
	var size [4]byte
	for {
		if _, err := io.ReadFull(r, size[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("failed to read record length: %w", err)
		}
		data := make([]byte, binary.BigEndian.Uint32(size[:]))
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		out = append(out, json.RawMessage(data))
	}
}
