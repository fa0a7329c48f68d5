// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// FileRunInfo is the run metadata file written into the run directory.
const FileRunInfo = "run.toml"

// RunInfo records the parameters and products of one extend run. It
// is written as run.toml in the run directory, and read back by
// "taxagraft utils concat --run-dir".
type RunInfo struct {
	TaxaGraftVersion string `toml:"taxagraft"`

	EvalueCutoff  float64 `toml:"evalue-cutoff"`  // 0 for per-profile estimation
	LengthRatio   float64 `toml:"length-ratio"`   // minimum length relative to median
	MaxHits       int     `toml:"max-hits"`       // max kept hits per taxon
	NoTrim        bool    `toml:"no-trim"`        // free realignment instead of --keeplength
	ScoreFraction float64 `toml:"score-fraction"` // minimum score relative to best so far

	TaxaFiles []string `toml:"taxa-files"`
	TaxaNames []string `toml:"taxa-names"`

	Alignments []AlignmentInfo `toml:"alignments"`
}

// AlignmentInfo records the products derived from one seed alignment.
type AlignmentInfo struct {
	Seed     string  `toml:"seed"`
	Profile  string  `toml:"profile"`
	Evalue   float64 `toml:"evalue"` // the cutoff actually used
	Extended string  `toml:"extended"`
	Columns  int     `toml:"columns"`
}

func readRunInfo(file string) (*RunInfo, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading run info file")
	}
	info := &RunInfo{}
	if err = toml.Unmarshal(data, info); err != nil {
		return nil, errors.Wrapf(err, "parsing run info file: %s", file)
	}
	return info, nil
}

func writeRunInfo(file string, info *RunInfo) error {
	data, err := toml.Marshal(info)
	if err != nil {
		return errors.Wrapf(err, "encoding run info")
	}
	if err = os.WriteFile(file, data, 0644); err != nil {
		return errors.Wrapf(err, "writing run info file")
	}
	return nil
}
