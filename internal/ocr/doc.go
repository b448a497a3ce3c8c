// Package ocr reads the characters on a cropped, preprocessed plate image.
//
// Two engines implement pipeline.Reader:
//
//   - Tesseract wraps the Tesseract engine through gosseract/v2. It reads one
//     text line per plate, restricted to upper-case letters and digits.
//   - CTC runs a CRNN-style ONNX model through onnxruntime_go and greedily
//     decodes its per-timestep class scores.
//
// Both return candidates in the order the engine reports them, with
// confidences scaled to 0.0-1.0. Neither corrects or validates the text;
// that is package plate's job.
//
// # Prerequisites
//
// Tesseract must be installed on the system along with the language data:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The CTC engine needs the onnxruntime shared library and a model file. The
// model takes a 1x1xHxW grayscale tensor normalized to [-1, 1] and emits
// [T, B, C] or [T, C] scores where class 0 is the CTC blank.
//
// # Error Handling
//
// Constructors exercise their engine and return an error wrapping ErrEngineInit
// when it is unusable, so misconfiguration surfaces before any image is read.
package ocr
