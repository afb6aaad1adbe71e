// Package archive implements the merge engine for assembled archives:
// a single-stream entry writer with deterministic collision renaming,
// an ordered manifest codec, and the boot template merger.
//
// All entry writes funnel through Writer, which is the single point
// enforcing entry-name uniqueness in the output.
package archive
