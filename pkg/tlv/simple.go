package tlv

import "fmt"

// SIMPLE-TLV field layout used by the license card EFs:
//
//	+-----+-----+-----------------+
//	| tag | len | value (len B)   |
//	+-----+-----+-----------------+
//
// The tag is not interpreted here: the records are positional and the
// caller knows how many fields to consume.

// TruncatedFieldError is returned when a field header or value runs past the
// end of the buffer.
type TruncatedFieldError struct {
	Offset    int // start of the field
	Length    int // declared value length, -1 if the header itself is cut
	Available int // bytes left in the buffer from Offset
}

func (e *TruncatedFieldError) Error() string {
	if e.Length < 0 {
		return fmt.Sprintf("truncated field header at offset %d: %d byte(s) available", e.Offset, e.Available)
	}
	return fmt.Sprintf("truncated field at offset %d: declared length %d, %d byte(s) available after header",
		e.Offset, e.Length, e.Available-2)
}

// NextField returns the value of the field starting at offset and the offset
// of the following field.
func NextField(buf []byte, offset int) ([]byte, int, error) {
	if offset < 0 || offset+2 > len(buf) {
		avail := len(buf) - offset
		if avail < 0 {
			avail = 0
		}
		return nil, offset, &TruncatedFieldError{Offset: offset, Length: -1, Available: avail}
	}

	n := int(buf[offset+1])
	end := offset + 2 + n
	if end > len(buf) {
		return nil, offset, &TruncatedFieldError{Offset: offset, Length: n, Available: len(buf) - offset}
	}

	return buf[offset+2 : end], end, nil
}

// Split reads exactly count consecutive fields from the start of buf.
// It returns the values in order and the offset just past the last field.
func Split(buf []byte, count int) ([][]byte, int, error) {
	values := make([][]byte, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		v, next, err := NextField(buf, offset)
		if err != nil {
			return nil, offset, fmt.Errorf("field %d: %w", i, err)
		}
		values = append(values, v)
		offset = next
	}
	return values, offset, nil
}

// Join encodes values as consecutive fields. tags[i] is used for values[i];
// missing tags default to 0x00. It panics if a value exceeds 255 bytes.
func Join(tags []byte, values [][]byte) []byte {
	var out []byte
	for i, v := range values {
		if len(v) > 0xFF {
			panic(fmt.Sprintf("value %d too long for a one-byte length: %d", i, len(v)))
		}
		var tag byte
		if i < len(tags) {
			tag = tags[i]
		}
		out = append(out, tag, byte(len(v)))
		out = append(out, v...)
	}
	return out
}
