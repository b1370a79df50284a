package transfer

import (
	"bytes"
	"testing"

	"wsdrop/pkg/types"

	"github.com/stretchr/testify/require"
)

func content(size int) []byte {
	b := make([]byte, size)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// drain runs a transfer to completion and returns the frame lengths and the
// percent observed after each frame.
func drain(t *testing.T, tr *Transfer) (lengths []int, percents []float64, joined []byte) {
	t.Helper()
	for {
		chunk, ok := tr.NextChunk()
		if !ok {
			return lengths, percents, joined
		}
		require.Equal(t, int64(tr.Cursor())*DefaultChunkSize, tr.Offset())
		lengths = append(lengths, len(chunk))
		joined = append(joined, chunk...)
		tr.Advance()
		percents = append(percents, tr.Percent())
	}
}

func TestChunkingScenarios(t *testing.T) {
	cases := []struct {
		size    int
		lengths []int
	}{
		{10, []int{10}},
		{131072, []int{65536, 65536}},
		{100000, []int{65536, 34464}},
		{65537, []int{65536, 1}},
		{0, []int{0}},
	}
	for _, tc := range cases {
		data := content(tc.size)
		tr, err := New(types.Task{Name: "f", Size: int64(tc.size)}, data, DefaultChunkSize)
		require.NoError(t, err)

		lengths, percents, joined := drain(t, tr)
		require.Equal(t, tc.lengths, lengths, "size %d", tc.size)
		require.Equal(t, ChunkCount(int64(tc.size), DefaultChunkSize), len(lengths))
		require.True(t, bytes.Equal(data, joined), "size %d content mismatch", tc.size)
		require.True(t, tr.Done())
		require.Equal(t, 100.0, percents[len(percents)-1])
	}
}

func TestFrameCountProperty(t *testing.T) {
	const c = 1000
	for _, size := range []int{1, 2, 999, 1000, 1001, 2500, 10000, 12345} {
		data := content(size)
		tr, err := New(types.Task{Size: int64(size)}, data, c)
		require.NoError(t, err)

		var frames, total, last int
		for {
			chunk, ok := tr.NextChunk()
			if !ok {
				break
			}
			frames++
			total += len(chunk)
			last = len(chunk)
			tr.Advance()
		}

		wantFrames := (size + c - 1) / c
		require.Equal(t, wantFrames, frames, "size %d", size)
		require.Equal(t, size-c*(wantFrames-1), last, "size %d", size)
		require.Equal(t, size, total, "size %d", size)
	}
}

func TestPercentMonotonicAndHundredOnlyAtEnd(t *testing.T) {
	data := content(10*DefaultChunkSize + 17)
	tr, err := New(types.Task{Size: int64(len(data))}, data, DefaultChunkSize)
	require.NoError(t, err)

	_, percents, _ := drain(t, tr)
	require.Len(t, percents, 11)
	for i := 1; i < len(percents); i++ {
		require.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	for _, p := range percents[:len(percents)-1] {
		require.Less(t, p, 100.0)
	}
	require.Equal(t, 100.0, percents[len(percents)-1])
}

func TestZeroByteFileIsImmediatelyComplete(t *testing.T) {
	tr, err := New(types.Task{Name: "empty"}, nil, DefaultChunkSize)
	require.NoError(t, err)

	chunk, ok := tr.NextChunk()
	require.True(t, ok)
	require.Empty(t, chunk)

	tr.Advance()
	require.True(t, tr.Done())
	require.Equal(t, 100.0, tr.Percent())

	_, ok = tr.NextChunk()
	require.False(t, ok)
}

func TestAdvanceAfterDoneIsNoop(t *testing.T) {
	tr, err := New(types.Task{Size: 3}, []byte("abc"), DefaultChunkSize)
	require.NoError(t, err)
	tr.Advance()
	tr.Advance()
	require.Equal(t, 1, tr.Cursor())
}

func TestNewRejectsSizeMismatch(t *testing.T) {
	_, err := New(types.Task{Name: "f", Size: 5}, []byte("abc"), DefaultChunkSize)
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = New(types.Task{Size: 3}, []byte("abc"), 0)
	require.Error(t, err)
}

func TestProgress(t *testing.T) {
	var p Progress
	require.Equal(t, 0.0, p.Percent())
	p.Set(42.5)
	require.Equal(t, 42.5, p.Percent())

	var nilProgress *Progress
	nilProgress.Set(1)
	require.Equal(t, 0.0, nilProgress.Percent())
}
