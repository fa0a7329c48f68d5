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

package mafft

import (
	"testing"
)

func TestOutputFile(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dir/fam1.fasta", "dir/fam1.aln"},
		{"fam1.fa", "fam1.aln"},
		{"noext", "noext.aln"},
	}
	for _, test := range tests {
		if got := OutputFile(test.in); got != test.want {
			t.Errorf("OutputFile(%s) = %s, want %s", test.in, got, test.want)
		}
	}
}

func TestAlignCommand(t *testing.T) {
	a := &Aligner{Path: "mafft"}
	cmd, out := a.AlignCommand("fam1.fasta")
	if out != "fam1.aln" {
		t.Errorf("output is %s, want fam1.aln", out)
		return
	}
	if cmd.Stdout != out {
		t.Error("stdout should be captured to the output file")
		return
	}
	if cmd.String() != "mafft --auto --quiet fam1.fasta" {
		t.Errorf("unexpected command line: %s", cmd.String())
	}
}

func TestAddCommand(t *testing.T) {
	a := &Aligner{Path: "mafft"}
	cmd, out := a.AddCommand("fam1_old.aln", "fam1.fasta")
	if out != "fam1.aln" {
		t.Errorf("output is %s, want fam1.aln", out)
		return
	}
	if cmd.String() != "mafft --quiet --keeplength --auto --addlong fam1.fasta fam1_old.aln" {
		t.Errorf("unexpected command line: %s", cmd.String())
	}
}
