//go:build ebiten

// Command ebitenpaint is a paint window on ebiten. The canvas follows the
// window size and is drawn scaled up; strokes upload only what changed.
package main

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jessevdk/go-flags"

	"github.com/gogpu/texsync"
)

type options struct {
	Width    int  `short:"W" long:"width"    description:"Window width" default:"800"`
	Height   int  `short:"H" long:"height"   description:"Window height" default:"600"`
	Scale    int  `short:"s" long:"scale"    description:"Screen pixels per canvas pixel" default:"4"`
	Capacity int  `short:"k" long:"capacity" description:"Sparse capacity before switching to a region" default:"32"`
	Verbose  bool `short:"v" long:"verbose"  description:"Log texture traffic"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.Verbose {
		texsync.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	game := newGame(opts.Scale, opts.Capacity)
	defer game.close()

	ebiten.SetWindowTitle("ebitenpaint")
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
	log.Printf("ebitenpaint: %+v", game.stats())
}
