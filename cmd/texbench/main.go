// Command texbench replays synthetic paint workloads against a texture
// backend and reports how much upload traffic damage tracking saved.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend"
	_ "github.com/gogpu/texsync/backend/memtex"
	_ "github.com/gogpu/texsync/backend/termtex"
)

type options struct {
	Backend  string `short:"b" long:"backend"  description:"Texture backend" choice:"memory" choice:"terminal" default:"memory"`
	Width    int    `short:"W" long:"width"    description:"Canvas width" default:"256"`
	Height   int    `short:"H" long:"height"   description:"Canvas height" default:"256"`
	Frames   int    `short:"f" long:"frames"   description:"Frames to simulate" default:"600"`
	Capacity int    `short:"k" long:"capacity" description:"Sparse capacity before switching to a region" default:"32"`
	Workload string `short:"w" long:"workload" description:"Paint workload" choice:"dots" choice:"strokes" choice:"fills" choice:"mixed" default:"mixed"`
	Seed     uint64 `short:"s" long:"seed"     description:"Random seed" default:"1"`
	Verbose  bool   `short:"v" long:"verbose"  description:"Log every sync"`
}

func parseCmd() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return opts
}

func main() {
	opts := parseCmd()
	if opts.Verbose {
		texsync.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "texbench:", err)
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
	cache, err := backend.Get(opts.Backend)
	if err != nil {
		return err
	}
	defer backend.Release(cache)

	size := texsync.Sz(opts.Width, opts.Height)
	canvas, err := texsync.New(cache, size, texsync.WithSparseCapacity(opts.Capacity))
	if err != nil {
		return err
	}
	defer canvas.Close()

	w, err := newWorkload(opts.Workload, opts.Seed)
	if err != nil {
		return err
	}
	for frame := range opts.Frames {
		w.paint(canvas, frame)
		if err := canvas.Frame(size); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}

	report(out, opts, canvas.Stats(), size.Area())
	return nil
}

func report(out io.Writer, opts options, st texsync.Stats, cells int) {
	naive := (st.Frames - st.Idle) * cells
	fmt.Fprintf(out, "backend   %s\n", opts.Backend)
	fmt.Fprintf(out, "workload  %s, %d frames, %dx%d, K=%d\n", opts.Workload, opts.Frames, opts.Width, opts.Height, opts.Capacity)
	fmt.Fprintf(out, "frames    idle=%d sparse=%d region=%d full=%d\n", st.Idle, st.SparseFrames, st.RegionFrames, st.FullFrames)
	fmt.Fprintf(out, "patches   %d\n", st.Patches)
	fmt.Fprintf(out, "uploaded  %d cells (full replace every frame: %d)\n", st.PixelsUploaded, naive)
	if naive > 0 {
		fmt.Fprintf(out, "saved     %d cells (%.1f%%)\n", st.Saved(cells), 100*float64(st.Saved(cells))/float64(naive))
	}
}
