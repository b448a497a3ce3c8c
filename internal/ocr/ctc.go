package ocr

import (
	"bufio"
	"encoding/json"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCharset maps CTC class indices to text: the blank, the ten digits
// and the upper-case Latin letters.
var DefaultCharset = func() []string {
	cs := make([]string, 0, 1+len(PlateAlphabet))
	cs = append(cs, "")
	for _, r := range "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		cs = append(cs, string(r))
	}
	return cs
}()

// DecodeCTC greedily decodes per-timestep class scores.
//
// shape is [T, B, C] or [T, C]; only the first batch entry is decoded. At
// each step the highest-scoring class wins, repeats collapse and the blank
// (class 0) separates characters. Classes beyond the charset are ignored.
// The confidence is the mean softmax probability of the emitted characters,
// or 0 when nothing was emitted.
func DecodeCTC(output []float32, shape []int64, charset []string) (string, float64) {
	var timesteps, batch, classes int
	switch len(shape) {
	case 3:
		timesteps, batch, classes = int(shape[0]), int(shape[1]), int(shape[2])
	case 2:
		timesteps, batch, classes = int(shape[0]), 1, int(shape[1])
	default:
		return "", 0
	}
	if timesteps <= 0 || batch <= 0 || classes <= 0 || len(output) < timesteps*batch*classes {
		return "", 0
	}

	var sb strings.Builder
	var probSum float64
	emitted := 0
	last := -1

	for t := 0; t < timesteps; t++ {
		row := output[t*batch*classes : t*batch*classes+classes]

		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}

		if best != last && best != 0 && best < len(charset) {
			sb.WriteString(charset[best])
			probSum += softmaxAt(row, best)
			emitted++
		}
		last = best
	}

	if emitted == 0 {
		return sb.String(), 0
	}
	return sb.String(), probSum / float64(emitted)
}

// softmaxAt returns the softmax probability of row[i].
func softmaxAt(row []float32, i int) float64 {
	maxVal := row[0]
	for _, v := range row[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v - maxVal))
	}
	return math.Exp(float64(row[i]-maxVal)) / sum
}

// LoadCharset reads a charset file: either a JSON array of strings or one
// entry per line. Index 0 of a JSON charset must be the CTC blank; line files
// list only real characters and get the blank prepended. Blank lines are
// skipped.
func LoadCharset(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read charset")
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var cs []string
		if err := json.Unmarshal(data, &cs); err != nil {
			return nil, errors.Wrapf(err, "parse charset %s", path)
		}
		if len(cs) < 2 {
			return nil, errors.Errorf("charset %s has %d entries", path, len(cs))
		}
		return cs, nil
	}

	cs := []string{""}
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			cs = append(cs, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan charset %s", path)
	}
	if len(cs) < 2 {
		return nil, errors.Errorf("charset %s is empty", path)
	}
	return cs, nil
}
