// Package assembler orchestrates one assembly run: it enumerates source
// files into destination namespaces, synthesizes the output manifest from
// the boot template, streams everything through the archive writer, and
// optionally registers the produced file in the build report.
//
// External collaborators (native library matching, artifact attachment)
// are injected single-method ports so the workflow can be tested with
// fakes returning fixed lists.
package assembler
