// Package version exposes build identification, populated via -ldflags.
package version
