package codec

import "unicode/utf8"

// toValidUTF8 repairs a malformed UTF-8 byte sequence by substituting the
// Unicode replacement character for each invalid run, rather than failing
// the decode. OPC UA strings are UTF-8 with no BOM, but the wire format
// requires lenient decoding of malformed bytes.
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	buf := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		buf = append(buf, r)
		b = b[size:]
	}
	return string(buf)
}
