package postings

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/store"
)

func TestTermMetaRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		flag OptionFlag
		meta TermMeta
		want TermMeta
	}{
		{
			name: "all fields",
			flag: OptionFlagAll,
			meta: TermMeta{DocFreq: 12, TotalTF: 345678, Payload: 9012},
			want: TermMeta{DocFreq: 12, TotalTF: 345678, Payload: 9012},
		},
		{
			name: "doc ids only drops tf and payload",
			flag: 0,
			meta: TermMeta{DocFreq: 3, TotalTF: 99, Payload: 7},
			want: TermMeta{DocFreq: 3},
		},
		{
			name: "frequency without payload",
			flag: OptionFrequency,
			meta: TermMeta{DocFreq: 1, TotalTF: 1 << 40, Payload: 5},
			want: TermMeta{DocFreq: 1, TotalTF: 1 << 40},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := NewFormatOption(tt.flag)
			dumper := NewTermMetaDumper(opt)

			var buf bytes.Buffer
			require.NoError(t, dumper.Dump(&buf, tt.meta))
			assert.Equal(t, dumper.Size(tt.meta), buf.Len())

			var got TermMeta
			require.NoError(t, NewTermMetaLoader(opt).Load(&buf, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTermMetaFileRoundTrip(t *testing.T) {
	// Metas are streamed through the buffered file writer/reader pair when
	// they live outside a segment blob.
	opt := NewFormatOption(OptionFlagAll)
	metas := []TermMeta{
		{DocFreq: 1, TotalTF: 1, Payload: 0},
		{DocFreq: 1000, TotalTF: 1 << 33, Payload: 1 << 30},
		{DocFreq: 7, TotalTF: 42, Payload: 12345},
	}

	path := filepath.Join(t.TempDir(), "terms.meta")
	w, err := store.NewFileWriter(path, 0)
	require.NoError(t, err)
	dumper := NewTermMetaDumper(opt)
	for _, m := range metas {
		require.NoError(t, dumper.Dump(w, m))
	}
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	r, err := store.NewFileReader(path, 0)
	require.NoError(t, err)
	defer r.Close()
	loader := NewTermMetaLoader(opt)
	for i, want := range metas {
		var got TermMeta
		require.NoError(t, loader.Load(r, &got))
		assert.Equal(t, want, got, "meta %d", i)
	}
}

func TestTermMetaLoadTruncated(t *testing.T) {
	var got TermMeta
	err := NewTermMetaLoader(NewFormatOption(OptionFlagAll)).Load(bytes.NewReader(nil), &got)
	assert.Error(t, err)
}
