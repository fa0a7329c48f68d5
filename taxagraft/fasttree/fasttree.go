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

// Package fasttree wraps the FastTree program, which writes the
// inferred tree to standard output.
package fasttree

import (
	"path/filepath"
	"strings"

	"github.com/shenwei356/TaxaGraft/taxagraft/xtool"
)

// Inferrer wraps the FastTree (or FastTreeMP) program.
type Inferrer struct {
	Path string // FastTree executable
}

// OutputFile returns the tree file a run on alignmentFile produces:
// the input path with its extension replaced by .tree.
func OutputFile(alignmentFile string) string {
	return strings.TrimSuffix(alignmentFile, filepath.Ext(alignmentFile)) + ".tree"
}

// Command builds the invocation: <fasttree> -quiet <alignmentFile>,
// with standard output captured to the tree file.
func (f *Inferrer) Command(alignmentFile string) (*xtool.Command, string) {
	out := OutputFile(alignmentFile)
	return &xtool.Command{
		Path:   f.Path,
		Args:   []string{"-quiet", alignmentFile},
		Stdout: out,
	}, out
}

// Infer infers a tree from the alignment and returns the tree file
// path. A missing output file is returned as
// *xtool.MissingOutputError.
func (f *Inferrer) Infer(alignmentFile string) (string, error) {
	cmd, out := f.Command(alignmentFile)
	return out, cmd.Run(out)
}
