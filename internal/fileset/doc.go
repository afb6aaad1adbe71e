// Package fileset expands directory + include/exclude glob specifications
// into concrete file lists. It backs the assembler's native library
// collection and is the default implementation of its FileMatcher port.
package fileset
