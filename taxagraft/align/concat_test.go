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
	"testing"
)

func uniformAlignment(ids []string, columns int, letter byte) *Alignment {
	aln := &Alignment{Records: make([]*Record, 0, len(ids))}
	for _, id := range ids {
		aln.Records = append(aln.Records, &Record{
			ID:  id,
			Seq: bytes.Repeat([]byte{letter}, columns),
		})
	}
	return aln
}

func TestConcatenator(t *testing.T) {
	ids := []string{"taxon1", "taxon2", "taxon3"}

	concat := NewConcatenator()
	if err := concat.Add(uniformAlignment(ids, 120, 'A')); err != nil {
		t.Error(err)
		return
	}
	if err := concat.Add(uniformAlignment(ids, 80, 'G')); err != nil {
		t.Error(err)
		return
	}

	if concat.Columns() != 200 {
		t.Errorf("%d columns, want 200", concat.Columns())
		return
	}

	partitions := concat.Partitions()
	if len(partitions) != 2 {
		t.Errorf("%d partitions, want 2", len(partitions))
		return
	}
	if partitions[0].String() != "1:120" {
		t.Errorf("partition 1 is %s, want 1:120", partitions[0])
		return
	}
	if partitions[1].String() != "121:200" {
		t.Errorf("partition 2 is %s, want 121:200", partitions[1])
		return
	}

	matrix := concat.Alignment()
	if matrix.Rows() != 3 {
		t.Errorf("%d rows, want 3", matrix.Rows())
		return
	}
	for i, r := range matrix.Records {
		if r.ID != ids[i] {
			t.Errorf("row %d is %s, want %s", i, r.ID, ids[i])
			return
		}
		if len(r.Seq) != 200 {
			t.Errorf("row %s has %d columns, want 200", r.ID, len(r.Seq))
			return
		}
		if r.Seq[0] != 'A' || r.Seq[119] != 'A' || r.Seq[120] != 'G' || r.Seq[199] != 'G' {
			t.Errorf("row %s has wrong column content at the partition boundary", r.ID)
			return
		}
	}
}

func TestConcatenatorRowMismatch(t *testing.T) {
	concat := NewConcatenator()
	if err := concat.Add(uniformAlignment([]string{"a", "b"}, 10, 'A')); err != nil {
		t.Error(err)
		return
	}
	if err := concat.Add(uniformAlignment([]string{"a", "b", "c"}, 10, 'A')); err == nil {
		t.Error("row count mismatch should fail")
	}
}

func TestConcatenatorDoesNotAliasInput(t *testing.T) {
	aln := uniformAlignment([]string{"a"}, 5, 'A')
	concat := NewConcatenator()
	if err := concat.Add(aln); err != nil {
		t.Error(err)
		return
	}
	aln.Records[0].Seq[0] = 'Z'
	if concat.Alignment().Records[0].Seq[0] != 'A' {
		t.Error("supermatrix shares memory with an added alignment")
	}
}
