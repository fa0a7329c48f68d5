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

package cmd

import (
	"io"
	"os"

	colorable "github.com/mattn/go-colorable"
	"github.com/shenwei356/go-logging"
)

var log = logging.MustGetLogger("taxagraft")

var logFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{color:bold}[%{level:.4s}]%{color:reset} %{message}`,
)

func init() {
	var stderr io.Writer = os.Stderr
	if isWindows() {
		stderr = colorable.NewColorableStderr()
	}
	backend := logging.NewLogBackend(stderr, "", 0)
	logging.SetBackend(logging.NewBackendFormatter(backend, logFormat))
}

// addLog tees log output to a file, additionally to stderr when
// verbose. The returned file should be closed when the command ends.
func addLog(logfile string, verbose bool) *os.File {
	fh, err := os.Create(logfile)
	checkError(err)

	var w io.Writer = fh
	if verbose {
		var stderr io.Writer = os.Stderr
		if isWindows() {
			stderr = colorable.NewColorableStderr()
		}
		w = io.MultiWriter(fh, stderr)
	}
	backend := logging.NewLogBackend(w, "", 0)
	logging.SetBackend(logging.NewBackendFormatter(backend, logFormat))
	return fh
}

// checkError exits via the fatal-error channel. All failures abort
// the whole run; there is no partial-results mode.
func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}
