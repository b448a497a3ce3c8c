package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/config"
	"github.com/ironsheep/plate-recognizer/internal/imaging"
	"github.com/ironsheep/plate-recognizer/internal/logging"
	"github.com/ironsheep/plate-recognizer/internal/ocr"
	"github.com/ironsheep/plate-recognizer/internal/recognizer"
	"github.com/ironsheep/plate-recognizer/internal/server"
	"github.com/ironsheep/plate-recognizer/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
	exitImage   = 3
	exitInit    = 4
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "plate-recognizer %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return exitOK
		case "--help", "-h", "help":
			printUsage(stdout)
			return exitOK
		case "serve":
			return exitCode(serve(ctx, args[1:], stderr), stderr)
		case "recognize":
			args = args[1:]
		}
	}
	return exitCode(recognize(ctx, args, stdout, stderr), stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "plate-recognizer - detect and read vehicle license plates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  plate-recognizer [recognize] [options] <image>")
	fmt.Fprintln(w, "  plate-recognizer serve [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  recognize        Print the plates found in <image> as JSON (default)")
	fmt.Fprintln(w, "  serve            Run the MCP server over stdin/stdout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs, _ := newFlagSet("recognize")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  PLATE_LOG_LEVEL, PLATE_DETECTOR, PLATE_CASCADE_PATH, PLATE_PADDING,")
	fmt.Fprintln(w, "  PLATE_PREPROCESSOR, PLATE_OCR_ENGINE, PLATE_OCR_LANGUAGE,")
	fmt.Fprintln(w, "  PLATE_TESSDATA_PREFIX, PLATE_ONNX_MODEL, PLATE_ONNX_CHARSET,")
	fmt.Fprintln(w, "  PLATE_ONNX_RUNTIME, PLATE_ANNOTATE_OUTPUT")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 runtime error, 2 usage, 3 image not found or")
	fmt.Fprintln(w, "undecodable, 4 detector or OCR initialization failed.")
}

// cliFlags are overrides applied on top of the environment configuration.
type cliFlags struct {
	envFile      string
	logLevel     string
	detector     string
	cascade      string
	preprocessor string
	engine       string
	annotate     string
}

func newFlagSet(name string) (*flag.FlagSet, *cliFlags) {
	f := &cliFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.envFile, "env", ".env", "dotenv file to load before reading the environment")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.detector, "detector", "", "plate detector: cascade or edge")
	fs.StringVar(&f.cascade, "cascade", "", "Haar cascade model for the cascade detector")
	fs.StringVar(&f.preprocessor, "preprocessor", "", "region preprocessor: native or opencv")
	fs.StringVar(&f.engine, "ocr", "", "OCR engine: tesseract or onnx")
	fs.StringVar(&f.annotate, "annotate", "", "write an annotated copy of the image to this path")
	return fs, f
}

// loadConfig parses args and merges the flags over the environment.
func loadConfig(name string, args []string, stderr io.Writer) (*config.Config, *logging.Logger, []string, error) {
	fs, f := newFlagSet(name)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, nil, err
		}
		return nil, nil, nil, errors.Wrap(errUsage, err.Error())
	}

	cfg, err := config.Load(f.envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	override(&cfg.LogLevel, f.logLevel)
	override(&cfg.Detector, f.detector)
	override(&cfg.CascadePath, f.cascade)
	override(&cfg.Preprocessor, f.preprocessor)
	override(&cfg.Engine, f.engine)
	override(&cfg.AnnotateOutput, f.annotate)
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	level, ok := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewWithWriter(stderr, "plate-recognizer", level)
	if !ok {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	return cfg, logger, fs.Args(), nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func recognize(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, logger, rest, err := loadConfig("recognize", args, stderr)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.Wrap(errUsage, "expected exactly one image path")
	}
	path := rest[0]

	img, err := imaging.Load(path)
	if err != nil {
		return err
	}

	rec, err := recognizer.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	report, err := rec.RecognizeImage(ctx, path, img, cfg.AnnotateOutput)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func serve(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, logger, rest, err := loadConfig("serve", args, stderr)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Wrapf(errUsage, "unexpected arguments %v", rest)
	}

	logger.Debug("starting MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)
	srv := server.New(
		server.WithLogger(logger),
		server.WithVersion(Version),
		server.WithRecognizerFactory(func() (*recognizer.Recognizer, error) {
			return recognizer.Build(cfg, logger)
		}))
	defer srv.Close()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "server error")
	}
	return nil
}

// exitCode reports err on stderr and maps it to the process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(stderr, "plate-recognizer: %v\n", err)

	switch {
	case errors.Is(err, errUsage), errors.Is(err, config.ErrInvalidConfig):
		return exitUsage
	case errors.Is(err, imaging.ErrImageNotFound), errors.Is(err, imaging.ErrImageDecode):
		return exitImage
	case errors.Is(err, vision.ErrCascadeLoad), errors.Is(err, vision.ErrUnavailable),
		errors.Is(err, ocr.ErrEngineInit):
		return exitInit
	default:
		return exitRuntime
	}
}
