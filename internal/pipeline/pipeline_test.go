package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/plate-recognizer/internal/logging"
	"github.com/ironsheep/plate-recognizer/internal/plate"
)

type stubDetector struct {
	regions []Region
	err     error
	gotSize image.Point
	params  DetectParams
}

func (d *stubDetector) Detect(gray *image.Gray, params DetectParams) ([]Region, error) {
	d.gotSize = gray.Bounds().Size()
	d.params = params
	return d.regions, d.err
}

// readResult is what the stub reader returns for one call.
type readResult struct {
	candidates []plate.RawCandidate
	err        error
}

// stubReader answers calls in order and records the crop sizes it saw.
type stubReader struct {
	results []readResult
	sizes   []image.Point
}

func (r *stubReader) Read(_ context.Context, img image.Image) ([]plate.RawCandidate, error) {
	i := len(r.sizes)
	r.sizes = append(r.sizes, img.Bounds().Size())
	if i >= len(r.results) {
		return nil, nil
	}
	return r.results[i].candidates, r.results[i].err
}

type annotation struct {
	box  image.Rectangle
	text string
}

type stubRenderer struct {
	calls []annotation
}

func (r *stubRenderer) Annotate(_ draw.Image, box image.Rectangle, text string) {
	r.calls = append(r.calls, annotation{box, text})
}

type failingPreprocessor struct{}

func (failingPreprocessor) Preprocess(image.Image) (*image.Gray, error) {
	return nil, errors.New("boom")
}

func candidates(texts ...string) []plate.RawCandidate {
	out := make([]plate.RawCandidate, len(texts))
	for i, t := range texts {
		out[i] = plate.RawCandidate{Text: t, Confidence: 0.9}
	}
	return out
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func TestNew_Validation(t *testing.T) {
	det := &stubDetector{}
	rd := &stubReader{}

	_, err := New(nil, rd)
	assert.Error(t, err)

	_, err = New(det, nil)
	assert.Error(t, err)

	_, err = New(det, rd, WithPadding(-1))
	assert.Error(t, err)

	_, err = New(det, rd, WithPreprocessor(nil))
	assert.Error(t, err)

	p, err := New(det, rd)
	require.NoError(t, err)
	assert.Equal(t, DefaultPadding, p.padding)
	assert.Equal(t, DefaultDetectParams(), p.params)
}

func TestProcess_NoRegions(t *testing.T) {
	det := &stubDetector{}
	rd := &stubReader{}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(100, 60))
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, rd.sizes, "reader must not be called without regions")
	assert.Equal(t, image.Pt(100, 60), det.gotSize)
	assert.Equal(t, DefaultDetectParams(), det.params)
}

func TestProcess_SingleRegion(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 10, Y: 10, Width: 120, Height: 30}}}
	rd := &stubReader{results: []readResult{{candidates: candidates("MH12AB1234")}}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(200, 100))
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "MH12A81234", got.Text)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	require.NotNil(t, got.RegionName)
	assert.Equal(t, "Maharashtra", *got.RegionName)
	assert.Equal(t, "12", *got.OfficeCode)
	assert.Equal(t, "A8", *got.Series)
	assert.Equal(t, "1234", *got.SerialNumber)
	assert.Equal(t, Bounds{X1: 8, Y1: 8, X2: 132, Y2: 42}, got.Box)

	// The crop handed to OCR includes the padding.
	require.Len(t, rd.sizes, 1)
	assert.Equal(t, image.Pt(124, 34), rd.sizes[0])
}

func TestProcess_PaddingClippedAtBorder(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 0, Y: 1, Width: 50, Height: 20}}}
	rd := &stubReader{results: []readResult{{candidates: candidates("KA05MN4321")}}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(51, 22))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Bounds{X1: 0, Y1: 0, X2: 51, Y2: 22}, results[0].Box)
	assert.Equal(t, image.Pt(51, 22), rd.sizes[0])
}

func TestProcess_RejectedRegionSkipped(t *testing.T) {
	det := &stubDetector{regions: []Region{
		{X: 10, Y: 10, Width: 60, Height: 20},
		{X: 10, Y: 50, Width: 60, Height: 20},
		{X: 100, Y: 50, Width: 60, Height: 20},
	}}
	rd := &stubReader{results: []readResult{
		{candidates: candidates("AB")},
		{candidates: nil},
		{candidates: candidates("DL31CD5678")},
	}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(200, 100))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "DL31CD5678", results[0].Text)
	assert.Equal(t, Bounds{X1: 98, Y1: 48, X2: 162, Y2: 72}, results[0].Box)
	assert.Len(t, rd.sizes, 3)
}

func TestProcess_PreservesDetectionOrder(t *testing.T) {
	det := &stubDetector{regions: []Region{
		{X: 100, Y: 60, Width: 60, Height: 20},
		{X: 10, Y: 10, Width: 60, Height: 20},
	}}
	rd := &stubReader{results: []readResult{
		{candidates: candidates("TR19XY7771")},
		{candidates: candidates("GJ11AA9999")},
	}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(200, 100))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "TR19XY7771", results[0].Text)
	assert.Equal(t, "GJ11AA9999", results[1].Text)
}

func TestProcess_ShortTextEmittedWithoutDetails(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 5, Y: 5, Width: 40, Height: 15}}}
	rd := &stubReader{results: []readResult{{candidates: candidates("KA05")}}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(100, 50))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "KAD5", results[0].Text)
	assert.False(t, results[0].Parsed())
	assert.Nil(t, results[0].RegionName)
}

func TestProcess_DetectorErrorPropagates(t *testing.T) {
	det := &stubDetector{err: errors.New("classifier exploded")}
	p, err := New(det, &stubReader{})
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(50, 50))
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "classifier exploded")
}

func TestProcess_ReaderErrorSkipsRegion(t *testing.T) {
	det := &stubDetector{regions: []Region{
		{X: 0, Y: 0, Width: 40, Height: 20},
		{X: 50, Y: 0, Width: 40, Height: 20},
	}}
	rd := &stubReader{results: []readResult{
		{err: errors.New("engine hiccup")},
		{candidates: candidates("UP16RT1420")},
	}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(100, 40))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "UP16RT1420", results[0].Text)
}

func TestProcess_PreprocessErrorSkipsRegion(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 0, Y: 0, Width: 40, Height: 20}}}
	rd := &stubReader{}
	p, err := New(det, rd, WithPreprocessor(failingPreprocessor{}))
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(100, 40))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, rd.sizes)
}

func TestProcess_RegionOutsideImage(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 500, Y: 500, Width: 40, Height: 20}}}
	rd := &stubReader{}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), testImage(100, 40))
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, rd.sizes)
}

func TestProcess_CancelledContext(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 0, Y: 0, Width: 40, Height: 20}}}
	rd := &stubReader{}
	p, err := New(det, rd)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Process(ctx, testImage(100, 40))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rd.sizes)
}

func TestProcess_NonZeroOriginImage(t *testing.T) {
	base := testImage(300, 200)
	sub := base.SubImage(image.Rect(100, 50, 300, 200))

	det := &stubDetector{regions: []Region{{X: 10, Y: 10, Width: 50, Height: 20}}}
	rd := &stubReader{results: []readResult{{candidates: candidates("HR26DK8337")}}}
	p, err := New(det, rd)
	require.NoError(t, err)

	results, err := p.Process(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, image.Pt(200, 150), det.gotSize)
	assert.Equal(t, Bounds{X1: 8, Y1: 8, X2: 62, Y2: 32}, results[0].Box)
	assert.Equal(t, image.Pt(54, 24), rd.sizes[0])
}

func TestProcessAnnotated_DrawsEveryProcessedRegion(t *testing.T) {
	det := &stubDetector{regions: []Region{
		{X: 10, Y: 10, Width: 40, Height: 20},
		{X: 60, Y: 10, Width: 40, Height: 20},
	}}
	rd := &stubReader{results: []readResult{
		{candidates: candidates("MH12AB1234")},
		{candidates: candidates("X")},
	}}
	ren := &stubRenderer{}
	p, err := New(det, rd, WithRenderer(ren))
	require.NoError(t, err)

	img := testImage(120, 50)
	canvas := testImage(120, 50)
	results, err := p.ProcessAnnotated(context.Background(), img, canvas)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.Len(t, ren.calls, 2)
	assert.Equal(t, annotation{image.Rect(8, 8, 52, 32), "MH12A81234"}, ren.calls[0])
	assert.Equal(t, annotation{image.Rect(58, 8, 102, 32), ""}, ren.calls[1])
}

func TestProcess_NoRendererCalls(t *testing.T) {
	det := &stubDetector{regions: []Region{{X: 10, Y: 10, Width: 40, Height: 20}}}
	rd := &stubReader{results: []readResult{{candidates: candidates("MH12AB1234")}}}
	ren := &stubRenderer{}
	p, err := New(det, rd, WithRenderer(ren))
	require.NoError(t, err)

	_, err = p.Process(context.Background(), testImage(120, 50))
	require.NoError(t, err)
	assert.Empty(t, ren.calls)
}

func TestAnalyze_Report(t *testing.T) {
	det := &stubDetector{regions: []Region{
		{X: 10, Y: 10, Width: 40, Height: 20},
		{X: 60, Y: 10, Width: 40, Height: 20},
		{X: 10, Y: 40, Width: 40, Height: 20},
	}}
	rd := &stubReader{results: []readResult{
		{candidates: candidates("MH12AB1234")},
		{candidates: candidates("??")},
		{candidates: candidates("KA01AB0001")},
	}}
	var buf bytes.Buffer
	p, err := New(det, rd,
		WithPadding(0),
		WithLogger(logging.NewWithWriter(&buf, "test", logging.LevelDebug)))
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), "car.jpg", testImage(120, 80), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "car.jpg", report.Source)
	assert.Equal(t, 120, report.ImageWidth)
	assert.Equal(t, 80, report.ImageHeight)
	assert.Equal(t, 3, report.RegionsDetected)
	assert.Equal(t, 1, report.RegionsRejected)
	require.Len(t, report.Plates, 2)
	assert.Equal(t, Bounds{X1: 10, Y1: 10, X2: 50, Y2: 30}, report.Plates[0].Box)

	logs := buf.String()
	assert.Contains(t, logs, "plate detected")
	assert.Contains(t, logs, "run="+report.RunID)
}

func TestAnalyze_UniqueRunIDs(t *testing.T) {
	p, err := New(&stubDetector{}, &stubReader{})
	require.NoError(t, err)

	a, err := p.Analyze(context.Background(), "", testImage(10, 10), nil)
	require.NoError(t, err)
	b, err := p.Analyze(context.Background(), "", testImage(10, 10), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 0, a.RegionsDetected)
	assert.Empty(t, a.Plates)
}

func TestRegion_Padded(t *testing.T) {
	frame := image.Rect(0, 0, 100, 50)

	tests := []struct {
		name   string
		region Region
		pad    int
		want   image.Rectangle
	}{
		{"interior", Region{X: 10, Y: 10, Width: 20, Height: 10}, 2, image.Rect(8, 8, 32, 22)},
		{"zero pad", Region{X: 10, Y: 10, Width: 20, Height: 10}, 0, image.Rect(10, 10, 30, 20)},
		{"top-left corner", Region{X: 0, Y: 0, Width: 20, Height: 10}, 2, image.Rect(0, 0, 22, 12)},
		{"bottom-right corner", Region{X: 90, Y: 45, Width: 10, Height: 5}, 2, image.Rect(88, 43, 100, 50)},
		{"outside", Region{X: 200, Y: 200, Width: 10, Height: 5}, 2, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.region.Padded(tt.pad, frame)
			if tt.want.Empty() {
				assert.True(t, got.Empty())
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegionFromRect(t *testing.T) {
	r := RegionFromRect(image.Rect(30, 40, 10, 20))
	assert.Equal(t, Region{X: 10, Y: 20, Width: 20, Height: 20}, r)
	assert.Equal(t, image.Rect(10, 20, 30, 40), r.Rect())
}
