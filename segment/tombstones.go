package segment

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/blobstore"
)

// WriteTombstones stores the deleted-row bitmap as the segment's sidecar.
// An empty or nil bitmap removes the sidecar instead.
func WriteTombstones(ctx context.Context, store blobstore.BlobStore, name string, deleted *roaring.Bitmap) error {
	if deleted == nil || deleted.IsEmpty() {
		return store.Delete(ctx, name)
	}
	data, err := deleted.ToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize tombstones: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to store tombstones %s: %w", name, err)
	}
	return nil
}

// ReadTombstones loads a tombstone sidecar. A missing sidecar is not an
// error; it returns a nil bitmap.
func ReadTombstones(ctx context.Context, store blobstore.BlobStore, name string) (*roaring.Bitmap, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open tombstones %s: %w", name, err)
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to read tombstones %s: %w", name, err)
	}
	deleted := roaring.New()
	if err := deleted.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to decode tombstones %s: %w", name, err)
	}
	return deleted, nil
}
