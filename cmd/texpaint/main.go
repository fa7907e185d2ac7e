// Command texpaint is a terminal paint program. Every stroke reaches the
// terminal as a damage-tracked texture update, so only changed cells are
// redrawn.
//
// Drag with the left mouse button to paint, press 1-8 to pick a color,
// +/- to change the brush size, c to clear and q or Esc to quit.
package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/jessevdk/go-flags"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend/termtex"
)

type options struct {
	HalfBlocks bool   `short:"b" long:"half-blocks" description:"Show two pixel rows per terminal row"`
	Capacity   int    `short:"k" long:"capacity"    description:"Sparse capacity before switching to a region" default:"32"`
	LogFile    string `short:"l" long:"log"         description:"Write debug logs to this file"`
}

var palette = []color.RGBA{
	{0x00, 0x00, 0x00, 0xff},
	{0xe6, 0x39, 0x46, 0xff},
	{0xf4, 0xa2, 0x61, 0xff},
	{0xe9, 0xc4, 0x6a, 0xff},
	{0x2a, 0x9d, 0x8f, 0xff},
	{0x26, 0x46, 0x53, 0xff},
	{0x45, 0x7b, 0x9d, 0xff},
	{0xff, 0xff, 0xff, 0xff},
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
	if opts.LogFile != "" {
		f, err := os.Create(opts.LogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "texpaint:", err)
			os.Exit(1)
		}
		defer f.Close()
		texsync.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "texpaint:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()
	s.EnableMouse()
	s.HideCursor()

	var topts []termtex.Option
	if opts.HalfBlocks {
		topts = append(topts, termtex.WithHalfBlocks())
	}
	cache := termtex.New(s, topts...)

	p, err := newPainter(cache, opts.Capacity)
	if err != nil {
		return err
	}
	defer p.canvas.Close()

	for {
		p.status(s)
		s.Show()

		switch ev := s.PollEvent().(type) {
		case *tcell.EventResize:
			if err := p.resize(ev.Size()); err != nil {
				return err
			}
			s.Sync()
		case *tcell.EventMouse:
			x, y := ev.Position()
			p.mouse(x, y, ev.Buttons()&tcell.Button1 != 0)
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				return nil
			}
			if ev.Key() == tcell.KeyRune && !p.key(ev.Rune()) {
				return nil
			}
		}
		if err := p.canvas.Sync(); err != nil {
			return err
		}
	}
}
