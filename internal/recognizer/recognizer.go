// Package recognizer assembles a ready-to-use plate recognition pipeline from
// configuration and runs it on image files.
package recognizer

import (
	"context"
	"image"
	"io"

	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/config"
	"github.com/ironsheep/plate-recognizer/internal/detection"
	"github.com/ironsheep/plate-recognizer/internal/imaging"
	"github.com/ironsheep/plate-recognizer/internal/logging"
	"github.com/ironsheep/plate-recognizer/internal/ocr"
	"github.com/ironsheep/plate-recognizer/internal/pipeline"
	"github.com/ironsheep/plate-recognizer/internal/preprocess"
	"github.com/ironsheep/plate-recognizer/internal/render"
	"github.com/ironsheep/plate-recognizer/internal/vision"
)

// ImageLoader decodes an image from a path. *imaging.ImageCache satisfies it.
type ImageLoader interface {
	Load(path string) (image.Image, error)
}

type loaderFunc func(path string) (image.Image, error)

func (f loaderFunc) Load(path string) (image.Image, error) { return f(path) }

// Recognizer owns a pipeline and the native resources behind it.
type Recognizer struct {
	pipeline *pipeline.Pipeline
	loader   ImageLoader
	closers  []io.Closer
	logger   *logging.Logger
}

// Build constructs the detector, preprocessor and OCR engine named by cfg.
// Failures to start a backend wrap vision.ErrCascadeLoad,
// vision.ErrUnavailable or ocr.ErrEngineInit. The edge detector with the
// native preprocessor never touches OpenCV, so it works in builds tagged
// noopencv.
func Build(cfg *config.Config, logger *logging.Logger) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	r := &Recognizer{loader: loaderFunc(imaging.Load), logger: logger}

	var detector pipeline.Detector
	switch cfg.Detector {
	case config.DetectorEdge:
		detector = detection.NewEdgeDetector()
	default:
		cascade, err := vision.NewCascadeDetector(cfg.CascadePath)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, cascade)
		detector = cascade
	}

	var pre pipeline.Preprocessor
	switch cfg.Preprocessor {
	case config.PreprocessorOpenCV:
		cv, err := vision.NewPreprocessor()
		if err != nil {
			r.Close()
			return nil, err
		}
		pre = cv
	default:
		pre = preprocess.NewNative()
	}

	var reader pipeline.Reader
	switch cfg.Engine {
	case config.EngineONNX:
		ctc, err := ocr.NewCTC(ocr.CTCOptions{
			ModelPath:   cfg.ONNXModel,
			CharsetPath: cfg.ONNXCharset,
			RuntimePath: cfg.ONNXRuntime,
		})
		if err != nil {
			r.Close()
			return nil, err
		}
		r.closers = append(r.closers, ctc)
		reader = ctc
	default:
		tess, err := ocr.NewTesseract(ocr.TesseractOptions{
			Language:       cfg.Language,
			TessdataPrefix: cfg.TessdataPrefix,
		})
		if err != nil {
			r.Close()
			return nil, err
		}
		reader = tess
	}

	p, err := pipeline.New(detector, reader,
		pipeline.WithPreprocessor(pre),
		pipeline.WithRenderer(render.DefaultAnnotator()),
		pipeline.WithPadding(cfg.Padding),
		pipeline.WithLogger(logger))
	if err != nil {
		r.Close()
		return nil, err
	}
	r.pipeline = p

	logger.Debug("recognizer ready",
		"detector", cfg.Detector, "preprocessor", cfg.Preprocessor, "engine", cfg.Engine)
	return r, nil
}

// New wraps an existing pipeline. Images are decoded with imaging.Load.
func New(p *pipeline.Pipeline, logger *logging.Logger, closers ...io.Closer) *Recognizer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recognizer{
		pipeline: p,
		loader:   loaderFunc(imaging.Load),
		closers:  closers,
		logger:   logger,
	}
}

// WithLoader returns a copy of r that decodes images through loader, such
// as a shared imaging.ImageCache. The copy shares r's resources.
func (r *Recognizer) WithLoader(loader ImageLoader) *Recognizer {
	c := *r
	c.loader = loader
	return &c
}

// RecognizeFile loads the image at path and recognizes its plates. When
// annotateOut is non-empty an annotated copy is written there; the source file
// is never modified.
func (r *Recognizer) RecognizeFile(ctx context.Context, path, annotateOut string) (*pipeline.Report, error) {
	img, err := r.loader.Load(path)
	if err != nil {
		return nil, err
	}
	return r.RecognizeImage(ctx, path, img, annotateOut)
}

// RecognizeImage recognizes the plates in an already decoded image.
func (r *Recognizer) RecognizeImage(ctx context.Context, source string, img image.Image, annotateOut string) (*pipeline.Report, error) {
	var canvas *image.NRGBA
	if annotateOut != "" {
		canvas = imaging.Clone(img)
	}

	var report *pipeline.Report
	var err error
	if canvas != nil {
		report, err = r.pipeline.Analyze(ctx, source, img, canvas)
	} else {
		report, err = r.pipeline.Analyze(ctx, source, img, nil)
	}
	if err != nil {
		return nil, err
	}

	if canvas != nil {
		if err := render.Save(canvas, annotateOut); err != nil {
			return report, err
		}
		r.logger.Info("annotated image written", "path", annotateOut, "run", report.RunID)
	}
	return report, nil
}

// Close releases native resources. It returns the first error encountered.
func (r *Recognizer) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = errors.Wrap(err, "close recognizer")
		}
	}
	r.closers = nil
	return first
}
