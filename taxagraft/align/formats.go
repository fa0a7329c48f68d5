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
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Formats lists the supported alignment format names for ReadFile.
var Formats = []string{"fasta", "clustal", "nexus", "phylip", "phylip-relaxed", "stockholm"}

// ReadFile reads an alignment in the named format.
// Supported formats: fasta, clustal, nexus, phylip, phylip-relaxed,
// stockholm. All formats may be plain or gzip-compressed.
func ReadFile(file string, format string) (*Alignment, error) {
	switch strings.ToLower(format) {
	case "fasta":
		return ReadFasta(file)
	case "clustal":
		return readClustal(file)
	case "nexus":
		return readNexus(file)
	case "phylip":
		return readPhylip(file, false)
	case "phylip-relaxed":
		return readPhylip(file, true)
	case "stockholm":
		return readStockholm(file)
	}
	return nil, fmt.Errorf("align: unsupported alignment format: %s (supported: %s)",
		format, strings.Join(Formats, ", "))
}

// interleavedBuilder accumulates sequence chunks per name across
// interleaved blocks, keeping first-seen name order.
type interleavedBuilder struct {
	order []string
	seqs  map[string][]byte
}

func newInterleavedBuilder() *interleavedBuilder {
	return &interleavedBuilder{
		order: make([]string, 0, 16),
		seqs:  make(map[string][]byte, 16),
	}
}

func (b *interleavedBuilder) add(name string, chunk string) {
	if _, ok := b.seqs[name]; !ok {
		b.order = append(b.order, name)
		b.seqs[name] = make([]byte, 0, 256)
	}
	// sequence chunks may contain internal spaces in some writers
	for _, part := range strings.Fields(chunk) {
		b.seqs[name] = append(b.seqs[name], part...)
	}
}

func (b *interleavedBuilder) alignment() (*Alignment, error) {
	aln := &Alignment{Records: make([]*Record, 0, len(b.order))}
	for _, name := range b.order {
		if err := aln.Append(&Record{ID: name, Seq: b.seqs[name]}); err != nil {
			return nil, err
		}
	}
	return aln, nil
}

func readClustal(file string) (*Alignment, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	defer fh.Close()

	b := newInterleavedBuilder()
	scanner := bufio.NewScanner(fh)
	var first = true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.HasPrefix(line, "CLUSTAL") || strings.HasPrefix(line, "MUSCLE") {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		// conservation lines are indented, sequence lines are not
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// a trailing column count is emitted by some writers
		if _, err := strconv.Atoi(fields[len(fields)-1]); err == nil && len(fields) > 2 {
			fields = fields[:len(fields)-1]
		}
		b.add(fields[0], strings.Join(fields[1:], ""))
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	return b.alignment()
}

func readStockholm(file string) (*Alignment, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	defer fh.Close()

	b := newInterleavedBuilder()
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "//" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		// Stockholm uses '.' for insert gaps, normalize to '-'
		b.add(fields[0], strings.ReplaceAll(fields[1], ".", "-"))
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	return b.alignment()
}

// strict phylip name field width
const phylipNameWidth = 10

func readPhylip(file string, relaxed bool) (*Alignment, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	if !scanner.Scan() {
		if err = scanner.Err(); err != nil {
			return nil, errors.Wrapf(err, "reading %s", file)
		}
		return nil, fmt.Errorf("align: empty phylip file: %s", file)
	}
	header := strings.Fields(scanner.Text())
	if len(header) < 2 {
		return nil, fmt.Errorf("align: invalid phylip header in %s: %q", file, scanner.Text())
	}
	ntax, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("align: invalid taxon count in %s: %q", file, header[0])
	}
	ncols, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("align: invalid column count in %s: %q", file, header[1])
	}

	b := newInterleavedBuilder()
	var i int
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(b.order) < ntax {
			// first block: lines carry names
			var name, rest string
			if relaxed {
				fields := strings.Fields(line)
				name = fields[0]
				rest = strings.Join(fields[1:], "")
			} else {
				if len(line) <= phylipNameWidth {
					return nil, fmt.Errorf("align: truncated phylip line in %s: %q", file, line)
				}
				name = strings.TrimSpace(line[:phylipNameWidth])
				rest = line[phylipNameWidth:]
			}
			b.add(name, rest)
		} else {
			// later interleaved blocks repeat sequences in taxon order
			b.add(b.order[i%ntax], line)
			i++
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}

	aln, err := b.alignment()
	if err != nil {
		return nil, err
	}
	if aln.Rows() != ntax {
		return nil, fmt.Errorf("align: %s declares %d taxa, found %d", file, ntax, aln.Rows())
	}
	if aln.Columns() != ncols {
		return nil, fmt.Errorf("align: %s declares %d columns, found %d", file, ncols, aln.Columns())
	}
	return aln, nil
}

func readNexus(file string) (*Alignment, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	defer fh.Close()

	b := newInterleavedBuilder()
	scanner := bufio.NewScanner(fh)
	var inMatrix bool
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inMatrix {
			if strings.EqualFold(line, "matrix") {
				inMatrix = true
			}
			continue
		}
		if line == ";" || strings.EqualFold(line, "end;") {
			break
		}
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		var last bool
		if strings.HasSuffix(line, ";") {
			last = true
			line = strings.TrimSpace(strings.TrimSuffix(line, ";"))
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			name := strings.Trim(fields[0], "'\"")
			b.add(name, strings.Join(fields[1:], ""))
		}
		if last {
			break
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	if !inMatrix {
		return nil, fmt.Errorf("align: no matrix block found in nexus file: %s", file)
	}
	return b.alignment()
}
