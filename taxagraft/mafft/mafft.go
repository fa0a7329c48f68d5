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

// Package mafft wraps the mafft aligner in the two modes this
// pipeline needs: free realignment of an unaligned sequence file, and
// length-preserving addition of new sequences onto an existing
// alignment. The aligned result, written by mafft to standard output,
// is captured to a file named after the input with an .aln extension.
package mafft

import (
	"path/filepath"
	"strings"

	"github.com/shenwei356/TaxaGraft/taxagraft/xtool"
)

// Aligner wraps the mafft program.
type Aligner struct {
	Path string // mafft executable
}

// OutputFile returns the alignment file a run on rawFile produces:
// the input path with its extension replaced by .aln.
func OutputFile(rawFile string) string {
	return strings.TrimSuffix(rawFile, filepath.Ext(rawFile)) + ".aln"
}

// AlignCommand builds the free-realignment invocation:
// mafft --auto --quiet <rawFile>, with automatic model selection.
// New sequences may introduce new gap columns, so the result does not
// necessarily keep the original column coordinates.
func (a *Aligner) AlignCommand(rawFile string) (*xtool.Command, string) {
	out := OutputFile(rawFile)
	return &xtool.Command{
		Path:   a.Path,
		Args:   []string{"--auto", "--quiet", rawFile},
		Stdout: out,
	}, out
}

// Align realigns rawFile from scratch and returns the output path.
// A missing output file is returned as *xtool.MissingOutputError.
func (a *Aligner) Align(rawFile string) (string, error) {
	cmd, out := a.AlignCommand(rawFile)
	return out, cmd.Run(out)
}

// AddCommand builds the length-preserving invocation:
// mafft --quiet --keeplength --auto --addlong <rawFile> <oldAlignment>.
// The output keeps exactly the old alignment's column count and
// coordinate system.
func (a *Aligner) AddCommand(oldAlignment string, rawFile string) (*xtool.Command, string) {
	out := OutputFile(rawFile)
	return &xtool.Command{
		Path:   a.Path,
		Args:   []string{"--quiet", "--keeplength", "--auto", "--addlong", rawFile, oldAlignment},
		Stdout: out,
	}, out
}

// Add adds the sequences of rawFile onto oldAlignment without
// changing its column coordinates, and returns the output path.
// A missing output file is returned as *xtool.MissingOutputError.
func (a *Aligner) Add(oldAlignment string, rawFile string) (string, error) {
	cmd, out := a.AddCommand(oldAlignment, rawFile)
	return out, cmd.Run(out)
}
