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

// Package align provides a simple multiple-sequence-alignment model:
// an ordered list of records of equal column length, plus the
// operations this toolkit needs: reading common MSA text formats,
// slicing by column intervals, removing gaps, and column-wise
// concatenation.
package align

import (
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"

	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
)

// Record is one row of an alignment, or one unaligned sequence.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	seq := make([]byte, len(r.Seq))
	copy(seq, r.Seq)
	return &Record{ID: r.ID, Desc: r.Desc, Seq: seq}
}

// Alignment is an ordered list of records of equal column length.
// Row order is significant and preserved by all operations.
type Alignment struct {
	Records []*Record
}

// Rows returns the number of records.
func (aln *Alignment) Rows() int {
	return len(aln.Records)
}

// Columns returns the column count, 0 for an empty alignment.
func (aln *Alignment) Columns() int {
	if len(aln.Records) == 0 {
		return 0
	}
	return len(aln.Records[0].Seq)
}

// Append adds a record, which must match the current column count
// unless the alignment is still empty.
func (aln *Alignment) Append(r *Record) error {
	if len(aln.Records) > 0 && len(r.Seq) != aln.Columns() {
		return fmt.Errorf("align: record %s has %d columns, alignment has %d",
			r.ID, len(r.Seq), aln.Columns())
	}
	aln.Records = append(aln.Records, r)
	return nil
}

// Slice extracts the columns covered by the partition as a new
// alignment. Sequence data is copied, row IDs and order are preserved.
func (aln *Alignment) Slice(p partition.Partition) (*Alignment, error) {
	if p.End > aln.Columns() {
		return nil, fmt.Errorf("align: partition %s out of range, alignment has %d columns",
			p.String(), aln.Columns())
	}
	sub := &Alignment{Records: make([]*Record, 0, len(aln.Records))}
	for _, r := range aln.Records {
		seq := make([]byte, p.Columns())
		copy(seq, r.Seq[p.Start-1:p.End])
		sub.Records = append(sub.Records, &Record{ID: r.ID, Desc: r.Desc, Seq: seq})
	}
	return sub, nil
}

// gap and masked-residue symbols removed by Degap
const gapSymbol = '-'
const maskSymbol = 'X'

// Degap returns a copy of the sequence with all gap and
// masked-residue symbols removed.
func Degap(seq []byte) []byte {
	degapped := make([]byte, 0, len(seq))
	for _, c := range seq {
		if c == gapSymbol || c == maskSymbol {
			continue
		}
		degapped = append(degapped, c)
	}
	return degapped
}

// UngappedLength returns the sequence length ignoring gap and
// masked-residue symbols.
func UngappedLength(seq []byte) int {
	var n int
	for _, c := range seq {
		if c == gapSymbol || c == maskSymbol {
			continue
		}
		n++
	}
	return n
}

// MedianUngappedLength returns the median of the ungapped lengths of
// all records. For an even row count the upper middle value is taken.
func (aln *Alignment) MedianUngappedLength() int {
	if len(aln.Records) == 0 {
		return 0
	}
	sizes := make([]int, len(aln.Records))
	for i, r := range aln.Records {
		sizes[i] = UngappedLength(r.Seq)
	}
	sort.Ints(sizes)
	return sizes[len(sizes)/2]
}

// ReadFastaRecords reads the records of a FASTA file, aligned or not,
// plain or gzip-compressed. No column-length invariant is enforced.
func ReadFastaRecords(file string) ([]*Record, error) {
	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	defer fastxReader.Close()

	records := make([]*Record, 0, 16)
	var record *fastx.Record
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "reading %s", file)
		}

		id := string(record.ID)
		name := string(record.Name)
		var desc string
		if len(name) > len(id) {
			desc = name[len(id)+1:]
		}

		seq := make([]byte, len(record.Seq.Seq))
		copy(seq, record.Seq.Seq)
		records = append(records, &Record{ID: id, Desc: desc, Seq: seq})
	}

	return records, nil
}

// ReadFasta reads an aligned FASTA file, plain or gzip-compressed.
// Rows of unequal column length are rejected.
func ReadFasta(file string) (*Alignment, error) {
	records, err := ReadFastaRecords(file)
	if err != nil {
		return nil, err
	}

	aln := &Alignment{Records: make([]*Record, 0, len(records))}
	for _, r := range records {
		if err = aln.Append(r); err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
	}
	return aln, nil
}

// fastaLineWidth is the wrap width used when writing FASTA.
const fastaLineWidth = 60

// WriteFastaRecord writes one record in FASTA format.
func WriteFastaRecord(w io.Writer, r *Record) error {
	var err error
	if r.Desc != "" {
		_, err = fmt.Fprintf(w, ">%s %s\n", r.ID, r.Desc)
	} else {
		_, err = fmt.Fprintf(w, ">%s\n", r.ID)
	}
	if err != nil {
		return err
	}
	for i := 0; i < len(r.Seq); i += fastaLineWidth {
		end := i + fastaLineWidth
		if end > len(r.Seq) {
			end = len(r.Seq)
		}
		if _, err = fmt.Fprintf(w, "%s\n", r.Seq[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// WriteFasta writes the alignment to a file in FASTA format,
// gzip-compressed for a .gz file name.
func (aln *Alignment) WriteFasta(file string) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "writing %s", file)
	}
	for _, r := range aln.Records {
		if err = WriteFastaRecord(outfh, r); err != nil {
			outfh.Close()
			return errors.Wrapf(err, "writing %s", file)
		}
	}
	return outfh.Close()
}

// WriteDegapped writes ungapped copies of all records to a FASTA file.
// Records left empty after degapping are skipped when removeEmpty is
// true. The returned median is the median ungapped length over all
// records, including those skipped.
func (aln *Alignment) WriteDegapped(file string, removeEmpty bool) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, errors.Wrapf(err, "writing %s", file)
	}

	sizes := make([]int, 0, len(aln.Records))
	for _, r := range aln.Records {
		degapped := Degap(r.Seq)
		sizes = append(sizes, len(degapped))
		if removeEmpty && len(degapped) == 0 {
			continue
		}
		err = WriteFastaRecord(outfh, &Record{ID: r.ID, Desc: r.Desc, Seq: degapped})
		if err != nil {
			outfh.Close()
			return 0, errors.Wrapf(err, "writing %s", file)
		}
	}
	if err = outfh.Close(); err != nil {
		return 0, err
	}

	var median int
	if len(sizes) > 0 {
		sort.Ints(sizes)
		median = sizes[len(sizes)/2]
	}
	return median, nil
}
