// Command kifu renders a game record.
//
//	kifu [flags] [file]
//
// The record is read from file, or standard input when file is absent or "-". It is a JSON
// game record, or a parsed SGF tree with --tree. With --batch the input is a list of jobs and
// every position is written into the --out directory. With --watch the replay is served as a
// live MJPEG stream on --addr instead.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gorgonia/kifu"
	"github.com/gorgonia/kifu/encoding/gif"
	"github.com/gorgonia/kifu/encoding/mjpeg"
	"github.com/gorgonia/kifu/encoding/png"
	"github.com/gorgonia/kifu/game"
	"github.com/gorgonia/kifu/internal/config"
	"github.com/gorgonia/kifu/render"
	"github.com/gorgonia/kifu/sgf"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type options struct {
	ply      int
	out      string
	format   string
	tree     bool
	batch    bool
	watch    bool
	interval time.Duration
	stats    string
}

func main() {
	var o options
	fs := pflag.NewFlagSet("kifu", pflag.ExitOnError)
	config.Flags(fs)
	fs.IntVarP(&o.ply, "ply", "n", -1, "render the position after this many plies, -1 for the end")
	fs.StringVarP(&o.out, "out", "o", "-", "output file, or directory with --batch")
	fs.StringVarP(&o.format, "format", "f", "png", "png, gif (the whole replay, one frame per job with --batch) or jpeg")
	fs.BoolVar(&o.tree, "tree", false, "the input is a parsed SGF tree")
	fs.BoolVar(&o.batch, "batch", false, "the input is a list of jobs")
	fs.BoolVar(&o.watch, "watch", false, "serve the replay as MJPEG on --addr")
	fs.DurationVar(&o.interval, "interval", time.Second, "time between plies with --watch")
	fs.StringVar(&o.stats, "stats", "", "write batch statistics as CSV to this file")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, o, fs.Arg(0), logger); err != nil {
		logger.Error("kifu failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, o options, in string, logger *zap.Logger) error {
	input, err := open(in)
	if err != nil {
		return err
	}
	defer input.Close()
	dec := json.NewDecoder(input)

	conf := kifu.Config{Render: cfg.RenderOptions(), Logger: logger}
	if conf.Encoder, err = encoder(o.format, conf.Render.Palette, logger); err != nil {
		return err
	}

	if o.batch {
		c, closeCache, err := cfg.OpenCache(ctx, logger)
		if err != nil {
			return err
		}
		defer closeCache()
		conf.Cache = c
		var jobs []kifu.Job
		if err := dec.Decode(&jobs); err != nil {
			return errors.Wrap(err, "unable to decode jobs")
		}
		return batch(ctx, kifu.New(conf), jobs, cfg.Workers, o)
	}

	rec, err := readRecord(dec, o.tree)
	if err != nil {
		return err
	}
	p := kifu.New(conf)

	if o.watch {
		return watch(ctx, p, rec, o, cfg.Addr, logger)
	}

	out, err := create(o.out)
	if err != nil {
		return err
	}
	defer out.Close()

	if enc, ok := conf.Encoder.(*gif.Encoder); ok {
		return p.Animate(ctx, out, rec, o.ply, enc)
	}
	b, err := p.Encode(ctx, rec, o.ply)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

// extensions names the files written by --batch after the media type of their content.
var extensions = map[string]string{
	png.ContentType:   ".png",
	gif.ContentType:   ".gif",
	mjpeg.ContentType: ".jpeg",
}

// encoder returns the encoder of a --format. A gif encoder builds the whole replay, except with
// --batch where every job is a single frame.
func encoder(format string, pal render.Palette, logger *zap.Logger) (kifu.Encoder, error) {
	switch format {
	case "png":
		return png.Encoder{}, nil
	case "gif":
		return gif.NewEncoder(pal, 0, 0), nil
	case "jpeg":
		return mjpeg.NewEncoder(0, logger), nil
	}
	return nil, errors.Errorf("unknown format %q", format)
}

func readRecord(dec *json.Decoder, tree bool) (game.Record, error) {
	if !tree {
		var rec game.Record
		err := dec.Decode(&rec)
		return rec, errors.Wrap(err, "unable to decode record")
	}
	var root sgf.Node
	if err := dec.Decode(&root); err != nil {
		return game.Record{}, errors.Wrap(err, "unable to decode tree")
	}
	return sgf.Extract(&root)
}

func batch(ctx context.Context, p *kifu.Pipeline, jobs []kifu.Job, workers int, o options) error {
	if o.out == "-" {
		return errors.New("--batch needs an output directory")
	}
	ext, ok := extensions[p.ContentType()]
	if !ok {
		return errors.Errorf("no file extension for %s", p.ContentType())
	}
	if err := os.MkdirAll(o.out, 0755); err != nil {
		return err
	}
	results, err := p.Batch(ctx, jobs, workers)
	if err != nil {
		return err
	}
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		name := filepath.Join(o.out, strconv.Itoa(i)+ext)
		if err := os.WriteFile(name, r.Data, 0644); err != nil {
			return err
		}
	}
	if o.stats == "" {
		return nil
	}
	f, err := os.Create(o.stats)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.DumpStatistics(f)
}

func watch(ctx context.Context, p *kifu.Pipeline, rec game.Record, o options, addr string, logger *zap.Logger) error {
	enc := mjpeg.NewEncoder(80, logger)
	srv := newServer(addr, enc)
	go func() {
		logger.Info("streaming", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil {
			logger.Info("stream server stopped", zap.Error(err))
		}
	}()
	defer srv.Close()

	if err := p.Stream(ctx, enc, rec, o.ply, o.interval); err != nil {
		return err
	}
	logger.Info("replay finished, the last position stays up until interrupted", zap.Int("frames", enc.Frames()))
	<-ctx.Done()
	return nil
}

func open(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func create(name string) (io.WriteCloser, error) {
	if name == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(name)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
