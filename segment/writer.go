package segment

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/hupe1980/lexgo/blobstore"
	"github.com/hupe1980/lexgo/fst"
	"github.com/hupe1980/lexgo/postings"
	"github.com/hupe1980/lexgo/resource"
)

// WriteOptions configures segment writing.
type WriteOptions struct {
	// Compression applied to the postings and dictionary sections.
	Compression Compression
	// Controller throttles flush IO when set.
	Controller *resource.Controller
}

// WriteOption modifies WriteOptions.
type WriteOption func(*WriteOptions)

// WithCompression selects the section compression.
func WithCompression(c Compression) WriteOption {
	return func(o *WriteOptions) {
		o.Compression = c
	}
}

// WithController installs a resource controller for IO throttling.
func WithController(rc *resource.Controller) WriteOption {
	return func(o *WriteOptions) {
		o.Controller = rc
	}
}

// Write encodes the given per-term posting writers into a segment, stores
// it under name, and returns the segment size in bytes. The encoded stream
// passes through the controller's IO limit, so large flushes are throttled
// rather than rejected. The blob store's atomic Put guarantees readers
// never see a partial segment.
func Write(ctx context.Context, store blobstore.BlobStore, name string, docCount uint32, terms map[string]*postings.Writer, format postings.FormatOption, opts ...WriteOption) (int, error) {
	o := WriteOptions{Compression: CompressionZSTD}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	tw := resource.NewRateLimitedWriter(ctx, &buf, o.Controller)
	if err := encode(tw, docCount, terms, format, o.Compression); err != nil {
		return 0, err
	}
	if err := store.Put(ctx, name, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("failed to store segment %s: %w", name, err)
	}
	return buf.Len(), nil
}

// Encode serializes a segment into a byte slice.
//
// Each dictionary lookup yields an offset into the postings section, where
// the term's entry is laid out as
//
//	term meta (format-dependent)
//	uvarint   posting byte length
//	posting   bytes
func Encode(docCount uint32, terms map[string]*postings.Writer, format postings.FormatOption, compression Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, docCount, terms, format, compression); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(out io.Writer, docCount uint32, terms map[string]*postings.Writer, format postings.FormatOption, compression Compression) error {
	if !compression.valid() {
		return fmt.Errorf("%w: compression type %d", ErrCorrupted, compression)
	}

	sorted := make([]string, 0, len(terms))
	for term := range terms {
		sorted = append(sorted, term)
	}
	sort.Strings(sorted)

	var postingsBuf bytes.Buffer
	dumper := postings.NewTermMetaDumper(format)
	builder := fst.NewBuilder()
	var scratch bytes.Buffer
	var lenBuf [binary.MaxVarintLen64]byte

	for _, term := range sorted {
		w := terms[term]
		offset := uint64(postingsBuf.Len())
		if err := builder.Insert([]byte(term), offset); err != nil {
			return fmt.Errorf("failed to index term %q: %w", term, err)
		}

		scratch.Reset()
		if err := w.Serialize(&scratch); err != nil {
			return fmt.Errorf("failed to serialize postings for %q: %w", term, err)
		}
		if err := dumper.Dump(&postingsBuf, w.Meta()); err != nil {
			return err
		}
		n := binary.PutUvarint(lenBuf[:], uint64(scratch.Len()))
		postingsBuf.Write(lenBuf[:n])
		postingsBuf.Write(scratch.Bytes())
	}

	dict, err := builder.Finish()
	if err != nil {
		return fmt.Errorf("failed to build term dictionary: %w", err)
	}

	postingsBlock, err := compressBlock(postingsBuf.Bytes(), compression)
	if err != nil {
		return err
	}
	dictBlock, err := compressBlock(dict, compression)
	if err != nil {
		return err
	}

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:], MagicNumber)
	binary.LittleEndian.PutUint32(header[4:], FormatVersion)
	header[8] = uint8(format.Flag())
	header[9] = uint8(compression)
	binary.LittleEndian.PutUint32(header[12:], docCount)
	binary.LittleEndian.PutUint32(header[16:], uint32(len(sorted)))
	binary.LittleEndian.PutUint64(header[24:], uint64(len(postingsBlock)))
	binary.LittleEndian.PutUint64(header[32:], uint64(len(dictBlock)))

	cw := newChecksumWriter(out)
	for _, chunk := range [][]byte{header[:], postingsBlock, dictBlock} {
		if _, err := cw.Write(chunk); err != nil {
			return err
		}
	}

	var footer [footerSize]byte
	binary.LittleEndian.PutUint32(footer[:], cw.Sum())
	if _, err := out.Write(footer[:]); err != nil {
		return err
	}
	return nil
}
