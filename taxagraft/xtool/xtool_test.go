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

package xtool

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func skipWithoutSh(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test needs sh")
	}
}

func TestRunCapturesStdout(t *testing.T) {
	skipWithoutSh(t)

	dir, err := os.MkdirTemp("", "taxagraft-xtool-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "out.txt")
	cmd := &Command{
		Path:   "sh",
		Args:   []string{"-c", "echo hello"},
		Stdout: out,
	}
	if err = cmd.Run(out); err != nil {
		t.Error(err)
		return
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Error(err)
		return
	}
	if strings.TrimSpace(string(data)) != "hello" {
		t.Errorf("captured %q, want hello", data)
	}
}

func TestRunAppendsStdout(t *testing.T) {
	skipWithoutSh(t)

	dir, err := os.MkdirTemp("", "taxagraft-xtool-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "log.txt")
	for i := 0; i < 2; i++ {
		cmd := &Command{
			Path:         "sh",
			Args:         []string{"-c", "echo line"},
			Stdout:       out,
			AppendStdout: true,
		}
		if err = cmd.Run(out); err != nil {
			t.Error(err)
			return
		}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Error(err)
		return
	}
	if strings.Count(string(data), "line") != 2 {
		t.Errorf("log not appended across invocations: %q", data)
	}
}

func TestRunMissingOutput(t *testing.T) {
	skipWithoutSh(t)

	dir, err := os.MkdirTemp("", "taxagraft-xtool-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	cmd := &Command{Path: "sh", Args: []string{"-c", "true"}}
	err = cmd.Run(filepath.Join(dir, "never-written.txt"))
	if err == nil {
		t.Error("missing expected output should fail")
		return
	}
	if _, ok := err.(*MissingOutputError); !ok {
		t.Errorf("error is %T, want *MissingOutputError", err)
	}
}

func TestRunIgnoresExitStatus(t *testing.T) {
	skipWithoutSh(t)

	dir, err := os.MkdirTemp("", "taxagraft-xtool-test")
	if err != nil {
		t.Error(err)
		return
	}
	defer os.RemoveAll(dir)

	// non-zero exit with the output present still counts as success
	out := filepath.Join(dir, "partial.txt")
	cmd := &Command{Path: "sh", Args: []string{"-c", "echo partial > " + out + "; exit 1"}}
	if err = cmd.Run(out); err != nil {
		t.Errorf("non-zero exit with existing output should pass: %s", err)
	}
}

func TestString(t *testing.T) {
	cmd := &Command{Path: "hmmsearch", Args: []string{"--cpu", "4", "--tblout", "out.tab", "p.hmm", "seqs.fasta"}}
	want := "hmmsearch --cpu 4 --tblout out.tab p.hmm seqs.fasta"
	if cmd.String() != want {
		t.Errorf("String() = %q, want %q", cmd.String(), want)
	}
}
