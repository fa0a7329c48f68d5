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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/bio/seq"

	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
)

func init() {
	seq.ValidateSeq = false
}

func testAlignment() *Alignment {
	return &Alignment{Records: []*Record{
		{ID: "seq1", Seq: []byte("MKL--AVX-W")},
		{ID: "seq2", Seq: []byte("MKLT-AV--W")},
		{ID: "seq3", Seq: []byte("----------")},
	}}
}

func TestSlice(t *testing.T) {
	aln := testAlignment()
	tests := []struct {
		p    partition.Partition
		want []string
	}{
		{partition.Partition{Start: 1, End: 4}, []string{"MKL-", "MKLT", "----"}},
		{partition.Partition{Start: 5, End: 10}, []string{"-AVX-W", "-AV--W", "------"}},
		{partition.Partition{Start: 3, End: 3}, []string{"L", "L", "-"}},
	}

	for _, test := range tests {
		sub, err := aln.Slice(test.p)
		if err != nil {
			t.Errorf("slicing %s: %s", test.p, err)
			return
		}
		if sub.Columns() != test.p.Columns() {
			t.Errorf("partition %s: %d columns, want %d", test.p, sub.Columns(), test.p.Columns())
			return
		}
		for i, r := range sub.Records {
			if r.ID != aln.Records[i].ID {
				t.Errorf("partition %s: row %d has ID %s, want %s", test.p, i, r.ID, aln.Records[i].ID)
				return
			}
			if string(r.Seq) != test.want[i] {
				t.Errorf("partition %s: row %d is %s, want %s", test.p, i, r.Seq, test.want[i])
				return
			}
		}
	}

	if _, err := aln.Slice(partition.Partition{Start: 5, End: 11}); err == nil {
		t.Error("out-of-range partition should fail")
	}
}

func TestDegap(t *testing.T) {
	tests := []struct {
		seq  string
		want string
	}{
		{"MKL--AVX-W", "MKLAVW"},
		{"----------", ""},
		{"MKLAVW", "MKLAVW"},
		{"XXX", ""},
	}
	for _, test := range tests {
		got := Degap([]byte(test.seq))
		if string(got) != test.want {
			t.Errorf("Degap(%s) = %s, want %s", test.seq, got, test.want)
			return
		}
		if UngappedLength([]byte(test.seq)) != len(test.want) {
			t.Errorf("UngappedLength(%s) = %d, want %d",
				test.seq, UngappedLength([]byte(test.seq)), len(test.want))
			return
		}
	}
}

func TestMedianUngappedLength(t *testing.T) {
	aln := &Alignment{Records: []*Record{
		{ID: "a", Seq: []byte("MK--------")}, // 2
		{ID: "b", Seq: []byte("MKLTAV----")}, // 6
		{ID: "c", Seq: []byte("MKLTAVNQRW")}, // 10
	}}
	if m := aln.MedianUngappedLength(); m != 6 {
		t.Errorf("median = %d, want 6", m)
	}

	// even row count takes the upper middle value
	aln.Records = append(aln.Records, &Record{ID: "d", Seq: []byte("MKLTAVNQ--")}) // 8
	if m := aln.MedianUngappedLength(); m != 8 {
		t.Errorf("median = %d, want 8", m)
	}
}

func TestFastaRoundTrip(t *testing.T) {
	dir, err := os.MkdirTemp("", "taxagraft-align-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	aln := &Alignment{Records: []*Record{
		{ID: "seq1", Desc: "some protein", Seq: bytes.Repeat([]byte("MKL--AVX-W"), 13)}, // wraps over 3 lines
		{ID: "seq2", Seq: bytes.Repeat([]byte("MKLT-AV--W"), 13)},
	}}

	file := filepath.Join(dir, "test.fasta")
	if err = aln.WriteFasta(file); err != nil {
		t.Error(err)
		return
	}

	aln2, err := ReadFasta(file)
	if err != nil {
		t.Error(err)
		return
	}
	if aln2.Rows() != aln.Rows() {
		t.Errorf("%d rows, want %d", aln2.Rows(), aln.Rows())
		return
	}
	for i, r := range aln2.Records {
		if r.ID != aln.Records[i].ID {
			t.Errorf("row %d: ID %s, want %s", i, r.ID, aln.Records[i].ID)
			return
		}
		if !bytes.Equal(r.Seq, aln.Records[i].Seq) {
			t.Errorf("row %d: seq %s, want %s", i, r.Seq, aln.Records[i].Seq)
			return
		}
	}
	if aln2.Records[0].Desc != "some protein" {
		t.Errorf("description not preserved: %q", aln2.Records[0].Desc)
	}
}

func TestWriteDegapped(t *testing.T) {
	dir, err := os.MkdirTemp("", "taxagraft-align-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	aln := testAlignment() // ungapped lengths: 6, 6, 0

	file := filepath.Join(dir, "degapped.fasta")
	median, err := aln.WriteDegapped(file, true)
	if err != nil {
		t.Error(err)
		return
	}
	if median != 6 {
		t.Errorf("median = %d, want 6", median)
		return
	}

	degapped, err := ReadFastaRecords(file)
	if err != nil {
		t.Error(err)
		return
	}
	// the all-gap row is removed
	if len(degapped) != 2 {
		t.Errorf("%d rows after degapping, want 2", len(degapped))
		return
	}
	for _, r := range degapped {
		if bytes.ContainsAny(r.Seq, "-X") {
			t.Errorf("row %s still contains gaps or masked residues: %s", r.ID, r.Seq)
			return
		}
	}
}

func TestReadFastaRagged(t *testing.T) {
	dir, err := os.MkdirTemp("", "taxagraft-align-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "ragged.fasta")
	err = os.WriteFile(file, []byte(">seq1\nMKLTAVNQRW\n>seq2\nMKL\n"), 0644)
	if err != nil {
		t.Error(err)
		return
	}

	// rows of unequal length must be rejected, not sliced later
	if _, err = ReadFasta(file); err == nil {
		t.Error("ragged alignment should fail to read")
		return
	}

	// the record reader has no such invariant
	records, err := ReadFastaRecords(file)
	if err != nil {
		t.Error(err)
		return
	}
	if len(records) != 2 || len(records[1].Seq) != 3 {
		t.Errorf("read %d records, want 2 with the short row intact", len(records))
	}
}
