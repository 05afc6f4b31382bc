package tinycompress

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func inflate(t *testing.T, stream []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(stream))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return out
}

func TestAppendStored_Inflates(t *testing.T) {
	for _, n := range []int{0, 1, 40, maxStored, maxStored + 1, 3*maxStored + 17} {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i * 7)
		}
		stream := AppendStored(nil, src)
		require.Len(t, stream, StoredSize(n), "size for %d bytes", n)
		require.Equal(t, src, append([]byte{}, inflate(t, stream)...), "round trip for %d bytes", n)
	}
}

func TestAppendStored_KeepsPrefix(t *testing.T) {
	stream := AppendStored([]byte("hdr"), []byte("abc"))
	require.Equal(t, []byte("hdr"), stream[:3])
	require.Equal(t, []byte("abc"), inflate(t, stream[3:]))
}
