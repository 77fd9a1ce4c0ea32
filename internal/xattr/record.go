package xattr

import (
	"encoding/binary"
	"fmt"

	"github.com/lmburns/wutag/internal/ids"
)

// recordVersion1 is the only record format defined so far. The leading
// version byte lets future schema changes stay backward-compatible: readers
// can dispatch on it before interpreting the rest of the payload.
const recordVersion1 byte = 1

// Record is the self-describing value stored under a tag's xattr key: the
// tag name and color are duplicated from the registry so that a `list`-style
// scan of a file's xattrs never has to open the registry, and an optional
// value name completes the (tag, value) pair.
type Record struct {
	TagName   string
	Color     ids.Color
	ValueName string // empty means "no value"
}

// Encode serializes r into the versioned binary wire format:
//
//	byte    version
//	uvarint len(tag_name)   bytes tag_name
//	uvarint len(color)      bytes color
//	byte    has_value (0|1)
//	uvarint len(value_name) bytes value_name   (present only if has_value=1)
func Encode(r Record) []byte {
	buf := make([]byte, 0, 1+len(r.TagName)+len(r.Color)+len(r.ValueName)+8)
	buf = append(buf, recordVersion1)
	buf = appendString(buf, r.TagName)
	buf = appendString(buf, string(r.Color))
	if r.ValueName == "" {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendString(buf, r.ValueName)
	}
	return buf
}

// Decode parses the versioned binary wire format produced by Encode.
func Decode(data []byte) (Record, error) {
	if len(data) == 0 {
		return Record{}, fmt.Errorf("xattr record: empty payload")
	}
	switch data[0] {
	case recordVersion1:
		return decodeV1(data[1:])
	default:
		return Record{}, fmt.Errorf("xattr record: unsupported version %d", data[0])
	}
}

func decodeV1(data []byte) (Record, error) {
	var r Record
	var err error

	r.TagName, data, err = readString(data)
	if err != nil {
		return Record{}, fmt.Errorf("xattr record: tag name: %w", err)
	}
	color, data2, err := readString(data)
	if err != nil {
		return Record{}, fmt.Errorf("xattr record: color: %w", err)
	}
	r.Color = ids.Color(color)
	data = data2

	if len(data) == 0 {
		return Record{}, fmt.Errorf("xattr record: missing has_value flag")
	}
	hasValue := data[0]
	data = data[1:]
	if hasValue == 1 {
		r.ValueName, _, err = readString(data)
		if err != nil {
			return Record{}, fmt.Errorf("xattr record: value name: %w", err)
		}
	}
	return r, nil
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
	buf = append(buf, lenBuf[:n]...)
	return append(buf, s...)
}

func readString(data []byte) (string, []byte, error) {
	l, n := binary.Uvarint(data)
	if n <= 0 {
		return "", nil, fmt.Errorf("malformed length prefix")
	}
	data = data[n:]
	if uint64(len(data)) < l {
		return "", nil, fmt.Errorf("truncated payload: want %d bytes, have %d", l, len(data))
	}
	return string(data[:l]), data[l:], nil
}
