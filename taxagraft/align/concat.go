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
	"fmt"

	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
)

// Concatenator builds a supermatrix by column-wise concatenation of
// alignments, in the order they are added, tracking the 1-based
// column interval each alignment occupies in the result.
//
// All added alignments must have the same row count, with rows in the
// same order. Row naming consistency is the caller's responsibility;
// the first alignment's row IDs name the supermatrix rows.
type Concatenator struct {
	records    []*Record
	partitions []partition.Partition
	columns    int
}

// NewConcatenator returns an empty Concatenator.
func NewConcatenator() *Concatenator {
	return &Concatenator{partitions: make([]partition.Partition, 0, 8)}
}

// Add appends the alignment's columns to the supermatrix and records
// its partition. The first alignment added seeds the matrix.
func (c *Concatenator) Add(aln *Alignment) error {
	if c.records == nil {
		c.records = make([]*Record, len(aln.Records))
		for i, r := range aln.Records {
			c.records[i] = r.Clone()
		}
	} else {
		if len(aln.Records) != len(c.records) {
			return fmt.Errorf("align: cannot concatenate alignment with %d rows onto supermatrix with %d rows",
				len(aln.Records), len(c.records))
		}
		for i, r := range aln.Records {
			c.records[i].Seq = append(c.records[i].Seq, r.Seq...)
		}
	}

	n := aln.Columns()
	c.partitions = append(c.partitions, partition.Partition{
		Start: c.columns + 1,
		End:   c.columns + n,
	})
	c.columns += n
	return nil
}

// Columns returns the current supermatrix column count.
func (c *Concatenator) Columns() int {
	return c.columns
}

// Alignment returns the concatenated supermatrix.
func (c *Concatenator) Alignment() *Alignment {
	return &Alignment{Records: c.records}
}

// Partitions returns the column interval of each added alignment, in
// addition order, contiguous and 1-based inclusive.
func (c *Concatenator) Partitions() []partition.Partition {
	return c.partitions
}
