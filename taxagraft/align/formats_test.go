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

package align

import (
	"os"
	"path/filepath"
	"testing"
)

// all fixtures encode the same 3x20 alignment
var formatFixtures = map[string]string{
	"fasta": `>seq1
MKLTAVNQRWMKL--AVX-W
>seq2
MKLT-AV--WMKLTAVNQRW
>seq3
MKLTAVNQRWMKLTAVNQRW
`,
	"clustal": `CLUSTAL W (1.83) multiple sequence alignment

seq1      MKLTAVNQRW
seq2      MKLT-AV--W
seq3      MKLTAVNQRW
          **** **  *

seq1      MKL--AVX-W
seq2      MKLTAVNQRW
seq3      MKLTAVNQRW
`,
	"stockholm": `# STOCKHOLM 1.0
#=GF ID test
seq1 MKLTAVNQRWMKL..AVX.W
seq2 MKLT.AV..WMKLTAVNQRW
seq3 MKLTAVNQRWMKLTAVNQRW
//
`,
	"phylip": ` 3 20
seq1      MKLTAVNQRW
seq2      MKLT-AV--W
seq3      MKLTAVNQRW

MKL--AVX-W
MKLTAVNQRW
MKLTAVNQRW
`,
	"phylip-relaxed": `3 20
seq1 MKLTAVNQRWMKL--AVX-W
seq2 MKLT-AV--WMKLTAVNQRW
seq3 MKLTAVNQRWMKLTAVNQRW
`,
	"nexus": `#NEXUS
begin data;
  dimensions ntax=3 nchar=20;
  format datatype=protein gap=-;
  matrix
  seq1 MKLTAVNQRWMKL--AVX-W
  seq2 MKLT-AV--WMKLTAVNQRW
  seq3 MKLTAVNQRWMKLTAVNQRW
  ;
end;
`,
}

var formatWant = map[string]string{
	"seq1": "MKLTAVNQRWMKL--AVX-W",
	"seq2": "MKLT-AV--WMKLTAVNQRW",
	"seq3": "MKLTAVNQRWMKLTAVNQRW",
}

func TestReadFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "taxagraft-formats-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	for format, content := range formatFixtures {
		file := filepath.Join(dir, "test."+format)
		if err = os.WriteFile(file, []byte(content), 0644); err != nil {
			t.Error(err)
			return
		}

		aln, err := ReadFile(file, format)
		if err != nil {
			t.Errorf("%s: %s", format, err)
			return
		}
		if aln.Rows() != 3 {
			t.Errorf("%s: %d rows, want 3", format, aln.Rows())
			return
		}
		if aln.Columns() != 20 {
			t.Errorf("%s: %d columns, want 20", format, aln.Columns())
			return
		}
		order := []string{"seq1", "seq2", "seq3"}
		for i, r := range aln.Records {
			if r.ID != order[i] {
				t.Errorf("%s: row %d is %s, want %s", format, i, r.ID, order[i])
				return
			}
			if string(r.Seq) != formatWant[r.ID] {
				t.Errorf("%s: %s = %s, want %s", format, r.ID, r.Seq, formatWant[r.ID])
				return
			}
		}
	}
}

func TestReadFileUnsupportedFormat(t *testing.T) {
	if _, err := ReadFile("whatever.aln", "msf"); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestReadPhylipMismatch(t *testing.T) {
	dir, err := os.MkdirTemp("", "taxagraft-formats-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "bad.phy")
	err = os.WriteFile(file, []byte(" 3 30\nseq1      MKLTAVNQRW\nseq2      MKLT-AV--W\nseq3      MKLTAVNQRW\n"), 0644)
	if err != nil {
		t.Error(err)
		return
	}
	if _, err = ReadFile(file, "phylip"); err == nil {
		t.Error("column count mismatch should fail")
	}
}
