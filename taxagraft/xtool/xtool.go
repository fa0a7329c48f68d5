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

// Package xtool runs external programs whose only reliable success
// signal is the existence of an expected output file afterward.
// Exit status is never trusted on its own: some of the wrapped tools
// exit zero after partial failures, and some writers report errors
// that do not matter as long as the artifact was produced.
package xtool

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
)

// MissingOutputError reports that an external tool finished without
// producing its expected output file.
type MissingOutputError struct {
	Tool string
	Path string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("xtool: cannot find expected output file of %s: %s", e.Tool, e.Path)
}

// Command is one external tool invocation.
type Command struct {
	Path string   // executable path or name resolved via PATH
	Args []string // arguments, excluding the executable itself

	// Stdout is the file standard output is redirected to.
	// Empty means standard output is discarded.
	Stdout string

	// AppendStdout appends to Stdout instead of truncating it,
	// for accumulating logs across repeated invocations.
	AppendStdout bool
}

// String formats the full command line, for echoing to the log.
func (c *Command) String() string {
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Run invokes the command and verifies that expectedOutput exists
// afterward. A non-zero exit status alone is not an error; a missing
// expected output always is, returned as *MissingOutputError.
func (c *Command) Run(expectedOutput string) error {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Stderr = os.Stderr

	var stdout io.Writer = io.Discard
	var fh *os.File
	var err error
	if c.Stdout != "" {
		flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if c.AppendStdout {
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		fh, err = os.OpenFile(c.Stdout, flag, 0644)
		if err != nil {
			return errors.Wrapf(err, "opening stdout file for %s", c.Path)
		}
		stdout = fh
	}
	cmd.Stdout = stdout

	err = cmd.Run()
	if fh != nil {
		fh.Close()
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			// the tool could not be started at all
			return errors.Wrapf(err, "running %s", c.Path)
		}
	}

	existed, err := pathutil.Exists(expectedOutput)
	if err != nil {
		return errors.Wrapf(err, "checking output of %s", c.Path)
	}
	if !existed {
		return &MissingOutputError{Tool: c.Path, Path: expectedOutput}
	}
	return nil
}
