// Package lexgo is an embeddable full-text index core. Text columns are
// tokenized and inverted into posting lists, the term dictionary is a
// compact immutable FST, and flushed segments are immutable checksummed
// blobs with roaring tombstones for deletes.
//
// Basic usage:
//
//	store, _ := blobstore.NewLocalStore("./index")
//	idx, _ := lexgo.Open(store)
//	defer idx.Close()
//
//	col := column.NewTextColumn()
//	col.AppendValue("a finite-state transducer maps strings")
//	_ = idx.IndexColumn(ctx, col)
//	_, _ = idx.Flush(ctx)
//
//	it, ok, _ := idx.PostingIterator(ctx, "transducer")
//	if ok {
//		for doc := it.SeekDoc(0); doc != postings.InvalidRowID; doc = it.SeekDoc(doc + 1) {
//			// ...
//		}
//	}
package lexgo
