// Command texview is a desktop paint window built on shiny. The canvas is
// drawn zoomed in; each mouse stroke uploads only the texels it touched.
//
// Drag to paint, press 1-8 for colors, c to copy the canvas to the
// clipboard as PNG, x to clear and q to quit.
package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"golang.design/x/clipboard"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/gogpu/texsync"
	"github.com/gogpu/texsync/backend/shinytex"
)

type options struct {
	Width    int  `short:"W" long:"width"    description:"Initial window width" default:"640"`
	Height   int  `short:"H" long:"height"   description:"Initial window height" default:"480"`
	Zoom     int  `short:"z" long:"zoom"     description:"Screen pixels per canvas pixel" default:"4"`
	Capacity int  `short:"k" long:"capacity" description:"Sparse capacity before switching to a region" default:"32"`
	Verbose  bool `short:"v" long:"verbose"  description:"Log texture traffic"`
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

	driver.Main(func(s screen.Screen) {
		if err := run(s, opts); err != nil {
			fmt.Fprintln(os.Stderr, "texview:", err)
			os.Exit(1)
		}
	})
}

func run(s screen.Screen, opts options) error {
	clipboardOK := true
	if err := clipboard.Init(); err != nil {
		texsync.Logger().Warn("texview: clipboard unavailable", "err", err)
		clipboardOK = false
	}

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: opts.Width, Height: opts.Height, Title: "texview"})
	if err != nil {
		return fmt.Errorf("new window: %w", err)
	}
	defer w.Release()

	cache := shinytex.New(s)
	defer cache.Close()

	v, err := newViewer(cache, image.Pt(opts.Width, opts.Height), opts.Zoom, opts.Capacity)
	if err != nil {
		return err
	}
	defer v.canvas.Close()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}
		case size.Event:
			if err := v.resize(image.Pt(e.WidthPx, e.HeightPx)); err != nil {
				return err
			}
			w.Send(paint.Event{})
		case mouse.Event:
			if v.mouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			switch act := v.key(e.Rune); act {
			case actionQuit:
				return nil
			case actionCopy:
				if !clipboardOK {
					continue
				}
				data, err := v.png()
				if err != nil {
					texsync.Logger().Warn("texview: encode png", "err", err)
					continue
				}
				clipboard.Write(clipboard.FmtImage, data)
			}
			w.Send(paint.Event{})
		case paint.Event:
			if err := v.canvas.Sync(); err != nil {
				return err
			}
			if err := cache.Draw(w, v.canvas.Texture(), v.screenRect()); err != nil {
				return err
			}
			w.Publish()
		case error:
			texsync.Logger().Warn("texview: window error", "err", e)
		}
	}
}
