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
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	p, err := Parse("1:120")
	if err != nil {
		t.Errorf("parsing valid interval: %s", err)
		return
	}
	if p.Start != 1 || p.End != 120 {
		t.Errorf("wrong interval: %s", p)
		return
	}
	if p.Columns() != 120 {
		t.Errorf("wrong number of columns: %d", p.Columns())
		return
	}
	if p.String() != "1:120" {
		t.Errorf("wrong format: %s", p)
		return
	}

	// single-column interval
	p, err = Parse(" 7:7 ")
	if err != nil {
		t.Errorf("parsing valid interval: %s", err)
		return
	}
	if p.Columns() != 1 {
		t.Errorf("wrong number of columns: %d", p.Columns())
	}

	for _, token := range []string{"", "1-120", "a:b", "1:2:3", "0:5", "10:5", ":", "5:"} {
		if _, err = Parse(token); err == nil {
			t.Errorf("interval %q should not parse", token)
			return
		}
	}
}

func TestParseList(t *testing.T) {
	ps, err := ParseList("1:120,121:280,281:300,")
	if err != nil {
		t.Errorf("parsing interval list: %s", err)
		return
	}
	if len(ps) != 3 {
		t.Errorf("wrong number of intervals: %d", len(ps))
		return
	}
	if ps[1].Start != 121 || ps[1].End != 280 {
		t.Errorf("wrong interval: %s", ps[1])
	}
}

func TestReadWriteFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "partition-test")
	if err != nil {
		t.Errorf("creating temp dir: %s", err)
		return
	}
	defer os.RemoveAll(dir)

	// intervals split across commas and lines
	file := filepath.Join(dir, "parts.txt")
	err = os.WriteFile(file, []byte("1:120,121:280\n\n281:300\n301:450,451:500\n"), 0o644)
	if err != nil {
		t.Errorf("writing test file: %s", err)
		return
	}

	ps, err := ReadFile(file)
	if err != nil {
		t.Errorf("reading partition file: %s", err)
		return
	}
	if len(ps) != 5 {
		t.Errorf("wrong number of intervals: %d", len(ps))
		return
	}
	for i, expected := range []Partition{{1, 120}, {121, 280}, {281, 300}, {301, 450}, {451, 500}} {
		if ps[i] != expected {
			t.Errorf("interval %d: expected %s, got %s", i, expected, ps[i])
			return
		}
	}

	out := filepath.Join(dir, "parts.out.txt")
	err = WriteFile(out, ps)
	if err != nil {
		t.Errorf("writing partition file: %s", err)
		return
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Errorf("reading written file: %s", err)
		return
	}
	if string(data) != "1:120,121:280,281:300,301:450,451:500\n" {
		t.Errorf("wrong file content: %q", data)
		return
	}

	ps2, err := ReadFile(out)
	if err != nil {
		t.Errorf("re-reading partition file: %s", err)
		return
	}
	if len(ps2) != len(ps) {
		t.Errorf("round trip changed interval count: %d != %d", len(ps2), len(ps))
	}
}
