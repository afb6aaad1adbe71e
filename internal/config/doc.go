// Package config defines the YAML assembly descriptor consumed by the
// assembler and provides helpers to load, validate, and persist it.
//
// The descriptor lists the primary artifact, the resolved dependency
// archives, declared system-scope dependencies, native library file-sets,
// and manifest/attachment options for one assembly run.
package config
