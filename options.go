// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dustin/go-humanize"
)

// DefaultArenaSize is the virtual address space reserved per heap (2 GiB, capped at
// the largest int on 32-bit platforms).
const DefaultArenaSize = min(2<<30, math.MaxInt)

// Environment variables read by the default heap.
const (
	// EnvDebug enables debug logging to stderr when set to any non-empty value.
	EnvDebug = "GOMALLOC_DEBUG"
	// EnvArenaSize overrides DefaultArenaSize, e.g. "512MiB" or "1GB".
	EnvArenaSize = "GOMALLOC_ARENA_SIZE"
)

// Option configures a Heap.
type Option func(*Heap)

// WithArenaSize sets the number of bytes reserved on first use.
// Values <= 0 select DefaultArenaSize.
func WithArenaSize(size int) Option {
	return func(h *Heap) {
		if size <= 0 {
			size = DefaultArenaSize
		}
		h.arenaSize = size
	}
}

// WithReserver sets the collaborator that reserves the arena. The default is MmapReserver.
func WithReserver(r Reserver) Option {
	return func(h *Heap) {
		if r != nil {
			h.reserver = r
		}
	}
}

// WithLogger sets the structured logger. By default all output is discarded.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) {
		if l != nil {
			h.logger = l
		}
	}
}

// ParseArenaSize parses a human-readable byte size such as "64MiB".
func ParseArenaSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("malloc: invalid arena size %q: %w", s, err)
	}
	if n == 0 || n > math.MaxInt {
		return 0, fmt.Errorf("malloc: arena size %q out of range", s)
	}
	return int(n), nil
}

// envOptions derives options from the process environment. A malformed
// EnvArenaSize is reported through the returned error and otherwise ignored.
func envOptions() ([]Option, error) {
	var opts []Option
	if os.Getenv(EnvDebug) != "" {
		opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}
	if v := os.Getenv(EnvArenaSize); v != "" {
		size, err := ParseArenaSize(v)
		if err != nil {
			return opts, err
		}
		opts = append(opts, WithArenaSize(size))
	}
	return opts, nil
}
