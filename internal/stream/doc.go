// Package stream adapts native asynchronous sequences into the host
// iterator protocol.
//
// A Stream wraps exactly one Sequence. Step pulls one element at a time
// under a context-aware lock, converts it for the host and reports the end
// with ErrIterationComplete. The first native error is reported as a
// NATIVE_FAILURE fault and ends the stream. Close, exhaustion, failure and
// garbage collection of the Stream all release the underlying Sequence.
//
// Usage:
//
//	s := stream.NewValues(coll.StreamSearch(ctx, "query", params, modelID, splitterID))
//	defer s.Close()
//	for v, err := range s.All(ctx) {
//		if err != nil {
//			return err
//		}
//		handle(v)
//	}
package stream
