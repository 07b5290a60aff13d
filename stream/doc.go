// Package stream implements the block stream codec: a Writer that turns a byte
// stream into a blockpress container and a Reader that turns it back.
//
// # Pipeline
//
// The Writer cuts its input into blocks and hands each full block to a pool of
// workers. A worker runs the transform chain and the entropy coder for its block
// only; no state is shared between blocks. Finished blocks are reordered by index
// and written by the goroutine that calls Write, Flush or Close, so the output is
// byte-identical whatever the number of workers. At most jobs+2 blocks are in
// flight, which bounds memory to a few block buffers per worker.
//
// The Reader mirrors this: it reads block descriptors ahead, decodes them on its
// workers and returns plaintext in block order.
//
// # Usage
//
//	w, err := stream.NewWriter(dst,
//	    stream.WithBlockSize(4<<20),
//	    stream.WithJobs(4),
//	    stream.WithCompression(format.CompressionZstd),
//	    stream.WithChecksum(true),
//	)
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, src); err != nil {
//	    return err
//	}
//	if err := w.Close(); err != nil {
//	    return err
//	}
//
//	r, err := stream.NewReader(compressed, stream.WithReaderJobs(4))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	_, err = io.Copy(out, r)
//
// # Errors
//
// Errors are classified with errors.Is against the errs package. The first error
// fails the stream permanently and stops its workers. Output produced before a
// failure must be discarded.
package stream
