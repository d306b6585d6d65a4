package postings

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLengthsPublish(t *testing.T) {
	lengths := NewColumnLengths()
	assert.Equal(t, 0, lengths.Len())
	assert.Equal(t, uint32(0), lengths.Get(5))

	lengths.setRange(0, []uint32{3, 1, 4})
	lengths.setRange(3, []uint32{1, 5})
	assert.Equal(t, 5, lengths.Len())
	assert.Equal(t, uint32(4), lengths.Get(2))
	assert.Equal(t, uint32(5), lengths.Get(4))
	assert.Equal(t, uint64(14), lengths.Sum())
	assert.Equal(t, []uint32{3, 1, 4, 1, 5}, lengths.Snapshot())
}

func TestLengthUpdateJobRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "col"+LengthSuffix)
	handler, err := NewLengthFileHandler(path)
	require.NoError(t, err)

	lengths := NewColumnLengths()
	job1 := NewLengthUpdateJob(handler, 3, 0, lengths)
	job2 := NewLengthUpdateJob(handler, 2, 3, lengths)
	copy(job1.ColumnLengthArray(), []uint32{10, 20, 30})
	copy(job2.ColumnLengthArray(), []uint32{40, 50})

	// Jobs covering disjoint ranges may run concurrently.
	var wg sync.WaitGroup
	for _, job := range []*LengthUpdateJob{job1, job2} {
		wg.Add(1)
		go func(j *LengthUpdateJob) {
			defer wg.Done()
			assert.NoError(t, j.DumpToFile())
		}(job)
	}
	wg.Wait()
	require.NoError(t, handler.Close())

	assert.Equal(t, []uint32{10, 20, 30, 40, 50}, lengths.Snapshot())

	fromFile, err := ReadLengthFile(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 20, 30, 40, 50}, fromFile)
}

func TestReadLengthFileRejectsBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+LengthSuffix)
	handler, err := NewLengthFileHandler(path)
	require.NoError(t, err)
	_, err = handler.f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, handler.Close())

	_, err = ReadLengthFile(path)
	assert.Error(t, err)
}
