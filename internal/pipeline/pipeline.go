// Package pipeline runs plate recognition over a single still image.
//
// For every region the Detector proposes, in the order it proposes them, the
// pipeline pads and clips the box, crops it, preprocesses the crop, hands it to
// the OCR Reader and interprets the candidates with package plate:
//
//	Detected -> Preprocessed -> Extracted -> Selected -> Corrected -> Parsed -> Emitted
//	                                     \-> Rejected (no usable text)
//
// Rejected regions are logged and contribute nothing to the output; the
// remaining regions are still processed. Only a failure to run the detector on
// the whole image aborts a run.
//
// Detection, OCR, preprocessing and annotation are collaborators behind small
// interfaces so the orchestration can be exercised with deterministic stubs.
package pipeline

import (
	"context"
	"image"
	"image/draw"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/imaging"
	"github.com/ironsheep/plate-recognizer/internal/logging"
	"github.com/ironsheep/plate-recognizer/internal/plate"
	"github.com/ironsheep/plate-recognizer/internal/preprocess"
)

// DefaultPadding is the number of pixels added around each detected region.
const DefaultPadding = 2

// DetectParams tunes a multi-scale sliding-window detector.
type DetectParams struct {
	// ScaleFactor is the ratio between successive window scales.
	ScaleFactor float64

	// MinNeighbors is how many overlapping raw hits a region needs to be kept.
	MinNeighbors int

	// MinSize is the smallest window considered.
	MinSize image.Point
}

// DefaultDetectParams returns scale 1.2, 5 neighbors and a 25x25 minimum.
func DefaultDetectParams() DetectParams {
	return DetectParams{
		ScaleFactor:  1.2,
		MinNeighbors: 5,
		MinSize:      image.Pt(25, 25),
	}
}

// Detector proposes plate regions on a whole-image intensity map.
type Detector interface {
	Detect(gray *image.Gray, params DetectParams) ([]Region, error)
}

// Reader extracts text candidates from a small plate image. Implementations
// return candidates in the order the engine reports them.
type Reader interface {
	Read(ctx context.Context, img image.Image) ([]plate.RawCandidate, error)
}

// Preprocessor prepares a plate crop for OCR. The output has the same
// dimensions as the input.
type Preprocessor interface {
	Preprocess(img image.Image) (*image.Gray, error)
}

// Renderer draws a region box and, when text is non-empty, its label.
type Renderer interface {
	Annotate(dst draw.Image, box image.Rectangle, text string)
}

// DetectionResult is one recognized plate.
type DetectionResult struct {
	plate.Reading

	// Box is the padded, clipped region the text was read from.
	Box Bounds `json:"box"`
}

// Pipeline wires the collaborators together. It holds no per-image state and
// is safe to reuse across images, though a single run is strictly sequential.
type Pipeline struct {
	detector     Detector
	reader       Reader
	preprocessor Preprocessor
	renderer     Renderer
	params       DetectParams
	padding      int
	logger       *logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPreprocessor replaces the default native preprocessor.
func WithPreprocessor(pre Preprocessor) Option {
	return func(p *Pipeline) { p.preprocessor = pre }
}

// WithRenderer sets the renderer used by ProcessAnnotated and Analyze.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithDetectParams overrides DefaultDetectParams.
func WithDetectParams(params DetectParams) Option {
	return func(p *Pipeline) { p.params = params }
}

// WithPadding overrides DefaultPadding.
func WithPadding(pad int) Option {
	return func(p *Pipeline) { p.padding = pad }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a pipeline around a detector and an OCR reader.
func New(detector Detector, reader Reader, opts ...Option) (*Pipeline, error) {
	if detector == nil {
		return nil, errors.New("pipeline: detector is required")
	}
	if reader == nil {
		return nil, errors.New("pipeline: reader is required")
	}

	p := &Pipeline{
		detector:     detector,
		reader:       reader,
		preprocessor: preprocess.NewNative(),
		params:       DefaultDetectParams(),
		padding:      DefaultPadding,
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.padding < 0 {
		return nil, errors.Errorf("pipeline: padding must be >= 0, got %d", p.padding)
	}
	if p.preprocessor == nil {
		return nil, errors.New("pipeline: preprocessor must not be nil")
	}
	return p, nil
}

// Process recognizes the plates in img and returns them in detection order.
// An image without detections yields an empty slice and no error.
func (p *Pipeline) Process(ctx context.Context, img image.Image) ([]DetectionResult, error) {
	out, err := p.run(ctx, img, nil, p.logger)
	if err != nil {
		return nil, err
	}
	return out.results, nil
}

// ProcessAnnotated is Process that also draws every processed region onto
// canvas through the configured Renderer. canvas is expected to be a copy of
// img with the same dimensions; img itself is never modified.
func (p *Pipeline) ProcessAnnotated(ctx context.Context, img image.Image, canvas draw.Image) ([]DetectionResult, error) {
	out, err := p.run(ctx, img, canvas, p.logger)
	if err != nil {
		return nil, err
	}
	return out.results, nil
}

// Report summarizes one recognition run.
type Report struct {
	RunID           string            `json:"run_id"`
	Source          string            `json:"source,omitempty"`
	ImageWidth      int               `json:"image_width"`
	ImageHeight     int               `json:"image_height"`
	RegionsDetected int               `json:"regions_detected"`
	RegionsRejected int               `json:"regions_rejected"`
	Plates          []DetectionResult `json:"plates"`
}

// Analyze runs the pipeline and wraps the results in a Report stamped with a
// fresh run ID. canvas may be nil.
func (p *Pipeline) Analyze(ctx context.Context, source string, img image.Image, canvas draw.Image) (*Report, error) {
	runID := uuid.NewString()
	log := p.logger.With("run", runID)

	out, err := p.run(ctx, img, canvas, log)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Report{
		RunID:           runID,
		Source:          source,
		ImageWidth:      b.Dx(),
		ImageHeight:     b.Dy(),
		RegionsDetected: out.detected,
		RegionsRejected: out.rejected,
		Plates:          out.results,
	}, nil
}

type runOutput struct {
	results  []DetectionResult
	detected int
	rejected int
}

func (p *Pipeline) run(ctx context.Context, img image.Image, canvas draw.Image, log *logging.Logger) (runOutput, error) {
	out := runOutput{results: []DetectionResult{}}

	gray := imaging.Intensity(img)
	regions, err := p.detector.Detect(gray, p.params)
	if err != nil {
		return out, errors.Wrap(err, "detect plates")
	}

	out.detected = len(regions)
	if len(regions) == 0 {
		log.Info("no plates detected")
		return out, nil
	}
	log.Debug("regions detected", "count", len(regions))

	for i, region := range regions {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res, ok := p.processRegion(ctx, img, gray.Bounds(), region, canvas, log.With("region", i))
		if !ok {
			out.rejected++
			continue
		}
		out.results = append(out.results, res)
	}

	return out, nil
}

// processRegion carries one region from Detected to Emitted or Rejected.
// frame is the zero-origin image extent the detector worked in.
func (p *Pipeline) processRegion(ctx context.Context, img image.Image, frame image.Rectangle, region Region, canvas draw.Image, log *logging.Logger) (DetectionResult, bool) {
	box := region.Padded(p.padding, frame)
	if box.Empty() {
		log.Warn("region outside image", "x", region.X, "y", region.Y, "w", region.Width, "h", region.Height)
		return DetectionResult{}, false
	}

	roi, err := imaging.Crop(img, box.Add(img.Bounds().Min))
	if err != nil {
		log.Warn("crop failed", "error", err)
		return DetectionResult{}, false
	}

	pre, err := p.preprocessor.Preprocess(roi)
	if err != nil {
		log.Warn("preprocess failed", "error", err)
		p.annotate(canvas, box, "")
		return DetectionResult{}, false
	}

	candidates, err := p.reader.Read(ctx, pre)
	if err != nil {
		log.Warn("ocr failed", "error", err)
		p.annotate(canvas, box, "")
		return DetectionResult{}, false
	}

	reading, ok := plate.Interpret(candidates)
	if !ok {
		log.Info("no valid plate text detected in region", "candidates", len(candidates))
		p.annotate(canvas, box, "")
		return DetectionResult{}, false
	}

	p.annotate(canvas, box, reading.Text)
	log.Info("plate detected", "plate", reading.Text, "parsed", reading.Parsed())

	return DetectionResult{Reading: reading, Box: BoundsFromRect(box)}, true
}

func (p *Pipeline) annotate(canvas draw.Image, box image.Rectangle, text string) {
	if canvas == nil || p.renderer == nil {
		return
	}
	p.renderer.Annotate(canvas, box.Add(canvas.Bounds().Min), text)
}
