// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wundergraph/go-malloc"
)

type options struct {
	arenaSize string
	verbose   bool
	blocks    bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "mallocdemo",
		Short: "Exercise the best-fit heap allocator",
		Long: `mallocdemo allocates three blocks of 100, 200 and 99 bytes, resizes them
to 140, 30 and 99 bytes, and prints every address together with the heap
statistics. It finishes by verifying the heap's internal lists.

Example:
  mallocdemo
  mallocdemo --arena-size 64MiB --verbose
  mallocdemo --blocks`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.arenaSize, "arena-size", humanize.IBytes(uint64(malloc.DefaultArenaSize)),
		"Virtual memory reserved for the arena")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log allocator events to stderr")
	cmd.Flags().BoolVar(&opts.blocks, "blocks", false, "List every carved block at the end")
	return cmd
}

func run(out, errOut io.Writer, opts options) (err error) {
	size, err := malloc.ParseArenaSize(opts.arenaSize)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	h := malloc.New(malloc.WithArenaSize(size), malloc.WithLogger(logger))
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			var fe *malloc.FatalError
			if e, ok := r.(error); ok && errors.As(e, &fe) {
				err = fe
				return
			}
			panic(r)
		}
	}()

	a1 := h.Malloc(100)
	a2 := h.Malloc(200)
	a3 := h.Malloc(99)
	fmt.Fprintf(out, "malloc(100) = %p\n", a1)
	fmt.Fprintf(out, "malloc(200) = %p\n", a2)
	fmt.Fprintf(out, "malloc(99)  = %p\n", a3)
	if a1 == nil || a2 == nil || a3 == nil {
		return fmt.Errorf("arena of %s is too small for the scenario", humanize.IBytes(uint64(size)))
	}

	r1 := h.Realloc(a1, 140)
	r2 := h.Realloc(a2, 30)
	r3 := h.Realloc(a3, 99)
	fmt.Fprintf(out, "realloc(%p, 140) = %p%s\n", a1, r1, moved(a1, r1))
	fmt.Fprintf(out, "realloc(%p, 30)  = %p%s\n", a2, r2, moved(a2, r2))
	fmt.Fprintf(out, "realloc(%p, 99)  = %p%s\n", a3, r3, moved(a3, r3))

	fmt.Fprintln(out, h.Stats())
	if opts.blocks {
		for b := range h.Blocks() {
			state := "free"
			if b.Allocated {
				state = "live"
			}
			fmt.Fprintf(out, "  %p %8s %s\n", b.Addr, humanize.IBytes(uint64(b.Size)), state)
		}
	}

	if err := h.Check(); err != nil {
		return err
	}
	fmt.Fprintln(out, "heap check: ok")
	return nil
}

func moved(from, to unsafe.Pointer) string {
	switch {
	case to == nil:
		return " (failed)"
	case from != to:
		return " (moved)"
	default:
		return ""
	}
}
