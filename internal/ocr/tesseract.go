package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/ironsheep/plate-recognizer/internal/plate"
)

// ErrEngineInit is returned when an OCR engine cannot be started.
var ErrEngineInit = errors.New("ocr engine could not be initialized")

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// PlateAlphabet is the set of characters a plate may contain.
const PlateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TesseractOptions configures a Tesseract reader.
type TesseractOptions struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// Whitelist limits recognition to these characters. Empty means
	// PlateAlphabet.
	Whitelist string
}

// Tesseract reads plate text with the Tesseract engine.
//
// A fresh client is created for every Read, so a Tesseract value is safe for
// concurrent use.
type Tesseract struct {
	opts          TesseractOptions
	clientFactory func() *gosseract.Client
}

// NewTesseract builds a reader and checks that the engine starts with the
// requested language data.
func NewTesseract(opts TesseractOptions) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Whitelist == "" {
		opts.Whitelist = PlateAlphabet
	}

	t := &Tesseract{opts: opts, clientFactory: gosseract.NewClient}
	if err := t.warmUp(); err != nil {
		return nil, errors.Wrapf(ErrEngineInit, "tesseract (%s): %v", opts.Language, err)
	}
	return t, nil
}

// Language returns the configured language code.
func (t *Tesseract) Language() string {
	return t.opts.Language
}

// warmUp runs the engine once on a blank image; gosseract only loads the
// language data when text is first requested.
func (t *Tesseract) warmUp() error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	data, err := encodePNG(blank)
	if err != nil {
		return err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := t.configure(c); err != nil {
		return err
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return errors.Wrap(err, "set image")
	}
	_, err = c.Text()
	return err
}

func (t *Tesseract) configure(c *gosseract.Client) error {
	if t.opts.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return errors.Wrap(err, "set tessdata prefix")
		}
	}
	if err := c.SetLanguage(t.opts.Language); err != nil {
		return errors.Wrap(err, "set language")
	}
	if err := c.SetWhitelist(t.opts.Whitelist); err != nil {
		return errors.Wrap(err, "set whitelist")
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return errors.Wrap(err, "set page segmentation mode")
	}
	return nil
}

// Read returns one candidate per text line Tesseract finds in img. When the
// engine reports no line boxes, the full text is returned as a single
// candidate with zero confidence.
func (t *Tesseract) Read(ctx context.Context, img image.Image) ([]plate.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := t.configure(c); err != nil {
		return nil, err
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return nil, errors.Wrap(err, "set image")
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, errors.Wrap(err, "recognize lines")
	}

	candidates := make([]plate.RawCandidate, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		candidates = append(candidates, plate.RawCandidate{
			Text:       text,
			Confidence: box.Confidence / 100.0,
			Bounds:     box.Box,
		})
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	text, err := c.Text()
	if err != nil {
		return nil, errors.Wrap(err, "recognize text")
	}
	if text = strings.TrimSpace(text); text != "" {
		candidates = append(candidates, plate.RawCandidate{Text: text, Bounds: img.Bounds()})
	}
	return candidates, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}
