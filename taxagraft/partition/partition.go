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

package partition

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// Partition is a closed interval of alignment columns.
// Positions are 1-based, both bounds included.
type Partition struct {
	Start int
	End   int
}

// Columns returns the number of columns the partition covers.
func (p Partition) Columns() int {
	return p.End - p.Start + 1
}

// String formats the partition as "start:end".
func (p Partition) String() string {
	return fmt.Sprintf("%d:%d", p.Start, p.End)
}

// Parse parses a single "start:end" token.
func Parse(token string) (Partition, error) {
	items := strings.Split(strings.TrimSpace(token), ":")
	if len(items) != 2 {
		return Partition{}, fmt.Errorf("partition: invalid interval: %q, should be in format of start:end", token)
	}
	start, err := strconv.Atoi(strings.TrimSpace(items[0]))
	if err != nil {
		return Partition{}, fmt.Errorf("partition: invalid start position: %q", items[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(items[1]))
	if err != nil {
		return Partition{}, fmt.Errorf("partition: invalid end position: %q", items[1])
	}
	if start < 1 {
		return Partition{}, fmt.Errorf("partition: start position should be >= 1: %d", start)
	}
	if end < start {
		return Partition{}, fmt.Errorf("partition: end position (%d) smaller than start position (%d)", end, start)
	}
	return Partition{Start: start, End: end}, nil
}

// ParseList parses comma-separated "start:end" tokens, e.g., "1:120,121:280".
// Empty tokens are skipped, so trailing commas are harmless.
func ParseList(line string) ([]Partition, error) {
	tokens := strings.Split(line, ",")
	ps := make([]Partition, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		p, err := Parse(token)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// ReadFile reads partitions from a text file.
// Intervals may be separated by commas and/or newlines, and are
// returned in file order. The file may be plain or gzip-compressed.
func ReadFile(file string) ([]Partition, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading partition file")
	}

	ps := make([]Partition, 0, 8)
	scanner := bufio.NewScanner(fh)
	var line string
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tmp, err := ParseList(line)
		if err != nil {
			fh.Close()
			return nil, err
		}
		ps = append(ps, tmp...)
	}
	if err = scanner.Err(); err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "reading partition file")
	}

	return ps, fh.Close()
}

// WriteFile writes all partitions as one comma-joined line,
// the format consumed by most phylogenetic partition tools here.
func WriteFile(file string, ps []Partition) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrapf(err, "writing partition file")
	}

	items := make([]string, len(ps))
	for i, p := range ps {
		items[i] = p.String()
	}
	fmt.Fprintln(outfh, strings.Join(items, ","))

	return outfh.Close()
}
