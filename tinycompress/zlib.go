// Package tinycompress produces zlib streams without a DEFLATE encoder:
// data is carried in stored blocks, which any inflater accepts. It keeps
// compress/flate and its tables out of the firmware image.
package tinycompress

import "hash/adler32"

// maxStored is the largest payload of one stored DEFLATE block.
const maxStored = 0xFFFF

// zlib header: deflate, 32K window, default level.
var header = [2]byte{0x78, 0x9C}

// StoredSize returns the length of the stream AppendStored produces for n
// input bytes.
func StoredSize(n int) int {
	blocks := (n + maxStored - 1) / maxStored
	if blocks == 0 {
		blocks = 1
	}
	return len(header) + blocks*5 + n + 4
}

// AppendStored appends the zlib stream for src to dst.
func AppendStored(dst, src []byte) []byte {
	sum := adler32.Checksum(src)
	dst = append(dst, header[:]...)
	for first := true; first || len(src) > 0; first = false {
		n := min(len(src), maxStored)
		var final byte
		if n == len(src) {
			final = 1
		}
		l := uint16(n)
		dst = append(dst, final, byte(l), byte(l>>8), byte(^l), byte(^l>>8))
		dst = append(dst, src[:n]...)
		src = src[n:]
	}
	return append(dst, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}
