// Command qoidec decodes QOI images from the command line.
//
// Usage:
//
//	qoidec dec [options] <input.qoi>   QOI → PNG/BMP/TIFF (use "-" for stdin, -o - for stdout)
//	qoidec info <input.qoi>            Display QOI header fields
//
// Inputs compressed with zstd, gzip or zlib are unwrapped transparently.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/kropptrevor/qoistream/internal/source"
	"github.com/kropptrevor/qoistream/qoi"
)

// errUsage is returned after usage text has already been printed.
var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "qoidec: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	switch args[0] {
	case "dec":
		return runDec(args[1:], stdin, stdout, stderr)
	case "info":
		return runInfo(args[1:], stdin, stdout)
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "qoidec: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  qoidec dec [options] <input.qoi>   Decode QOI to PNG, BMP, or TIFF
  qoidec info <input.qoi>            Display QOI header fields

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "qoidec <command> -h" for command-specific options.
`)
}

// openInput returns the input stream with any compression removed.
func openInput(path string, stdin io.Reader) (io.ReadCloser, source.Compression, error) {
	var raw io.ReadCloser
	if path == "-" {
		raw = io.NopCloser(stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, source.None, err
		}
		raw = f
	}

	r, c, err := source.Open(raw)
	if err != nil {
		raw.Close()
		return nil, c, err
	}
	return &input{ReadCloser: r, raw: raw}, c, nil
}

type input struct {
	io.ReadCloser
	raw io.Closer
}

func (in *input) Close() error {
	err := in.ReadCloser.Close()
	if cerr := in.raw.Close(); err == nil {
		err = cerr
	}
	return err
}

// --- dec ---

func runDec(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("o", "", `output path (default: input with the format extension, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, bmp, tiff (auto-detect from extension if omitted)")
	queue := fs.Int("queue", 0, "parsed chunks buffered ahead of pixel reconstruction (0=default)")
	bufSize := fs.Int("buf", 0, "initial read buffer size in bytes (0=default)")
	maxPixels := fs.Int("max-pixels", 0, "reject images with more pixels (0=default)")
	strict := fs.Bool("strict", false, "fail when the end marker arrives before every pixel is written")
	zeroCache := fs.Bool("zero-cache", false, "start with a cache of transparent black pixels")
	verbose := fs.Bool("v", false, "print timing to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: qoidec dec [options] <input.qoi>")
	}
	inputPath := fs.Arg(0)

	in, _, err := openInput(inputPath, stdin)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	defer in.Close()

	start := time.Now()
	h, pix, err := qoi.DecodePixels(context.Background(), in, &qoi.Options{
		QueueDepth: *queue,
		BufferSize: *bufSize,
		MaxPixels:  *maxPixels,
		Strict:     *strict,
		ZeroCache:  *zeroCache,
	})
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	elapsed := time.Since(start)

	img := &image.NRGBA{
		Pix:    pix,
		Stride: 4 * int(h.Width),
		Rect:   image.Rect(0, 0, int(h.Width), int(h.Height)),
	}

	outFmt := detectOutputFormat(*fmtFlag, *output)
	switch outFmt {
	case "png", "bmp", "tiff":
	default:
		return fmt.Errorf("dec: unknown output format %q", outFmt)
	}
	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "-"
		} else {
			outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "." + outFmt
		}
	}

	if outputPath == "-" {
		if err := encodeImage(stdout, img, outFmt); err != nil {
			return fmt.Errorf("dec: writing %s: %w", outFmt, err)
		}
	} else if err := writeFile(outputPath, img, outFmt); err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	if *verbose {
		fmt.Fprintf(stderr, "Decoded %dx%d (%d channels) in %v\n", h.Width, h.Height, h.Channels, elapsed)
		if outputPath != "-" {
			fmt.Fprintf(stderr, "Wrote %s\n", outputPath)
		}
	}
	return nil
}

// writeFile encodes img into path. A failed Close is reported like a failed
// write.
func writeFile(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encodeImage(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// detectOutputFormat returns "png", "bmp" or "tiff" based on flag/extension.
func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		return strings.ToLower(fmtFlag)
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".bmp":
			return "bmp"
		case ".tif", ".tiff":
			return "tiff"
		}
	}
	return "png"
}

func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unknown output format %q", format)
}

// --- info ---

func runInfo(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: qoidec info <input.qoi>")
	}
	inputPath := args[0]

	in, c, err := openInput(inputPath, stdin)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	defer in.Close()

	h, err := qoi.DecodeHeader(in)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}
	colorSpace := "sRGB with linear alpha"
	if h.ColorSpace == qoi.ColorSpaceLinear {
		colorSpace = "all channels linear"
	}

	fmt.Fprintf(stdout, "File:        %s\n", name)
	fmt.Fprintf(stdout, "Compression: %s\n", c)
	fmt.Fprintf(stdout, "Dimensions:  %d x %d\n", h.Width, h.Height)
	fmt.Fprintf(stdout, "Channels:    %d\n", h.Channels)
	fmt.Fprintf(stdout, "Color space: %s\n", colorSpace)

	if inputPath != "-" {
		fi, err := os.Stat(inputPath)
		if err == nil {
			fmt.Fprintf(stdout, "File size:   %d bytes\n", fi.Size())
		}
	}
	return nil
}
