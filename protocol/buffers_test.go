package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})
	require.Equal(t, 5, buf.Available())

	buf.Pop(2)
	require.Equal(t, []byte{3, 4, 5}, buf.Data())

	buf.Pop(10)
	require.Zero(t, buf.Available())
}

func TestScratchOutput(t *testing.T) {
	s := NewScratchOutput()
	s.Output([]byte{1, 2, 3})
	s.Output([]byte{4, 5})
	require.Equal(t, 5, s.CurPosition())

	s.Update(0, 99)
	s.Update(7, 42) // past the end: ignored
	require.Equal(t, []byte{99, 2, 3, 4, 5}, s.Result())
	require.Equal(t, []byte{3, 4, 5}, s.DataSince(2))
	require.Nil(t, s.DataSince(6))

	s.Reset()
	require.Empty(t, s.Result())
}

func TestFifoBuffer_Wraps(t *testing.T) {
	f := NewFifoBuffer(8)
	require.Equal(t, 7, f.Free())

	require.Equal(t, 6, f.Write([]byte{1, 2, 3, 4, 5, 6}))
	f.Pop(4)
	require.Equal(t, []byte{5, 6}, f.Data())

	// Fills across the end of the backing array.
	require.Equal(t, 5, f.Write([]byte{7, 8, 9, 10, 11, 12}))
	require.Equal(t, []byte{5, 6, 7, 8, 9, 10, 11}, f.Data())
	require.Zero(t, f.Free())

	f.Pop(100)
	require.Zero(t, f.Available())

	f.Write([]byte{1})
	f.Reset()
	require.Zero(t, f.Available())
}
