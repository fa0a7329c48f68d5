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

// Package hmmer wraps the hmmbuild and hmmsearch programs and
// processes their tabular output: parsing, hit filtering by e-value
// and relative score, and per-profile e-value cutoff derivation from
// a profile's search against its own seed sequences.
package hmmer

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"

	"github.com/shenwei356/TaxaGraft/taxagraft/xtool"
)

// Hit is one row of a hmmsearch --tblout table.
type Hit struct {
	Target string
	Evalue float64
	Score  float64
}

// tblout column indexes, 0-based: target name, full-sequence e-value,
// full-sequence bit score
const (
	colTarget = 0
	colEvalue = 4
	colScore  = 5
)

// ParseTblout parses a hmmsearch --tblout table. Comment lines
// (prefixed with #) and blank lines are skipped; row order is
// preserved.
func ParseTblout(file string) ([]Hit, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading search result table")
	}

	hits := make([]Hit, 0, 64)
	scanner := bufio.NewScanner(fh)
	var line string
	for scanner.Scan() {
		line = strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) <= colScore {
			fh.Close()
			return nil, fmt.Errorf("hmmer: invalid table row in %s: %q", file, line)
		}
		evalue, err := strconv.ParseFloat(fields[colEvalue], 64)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("hmmer: invalid e-value in %s: %q", file, fields[colEvalue])
		}
		score, err := strconv.ParseFloat(fields[colScore], 64)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("hmmer: invalid score in %s: %q", file, fields[colScore])
		}
		hits = append(hits, Hit{Target: fields[colTarget], Evalue: evalue, Score: score})
	}
	if err = scanner.Err(); err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "reading search result table")
	}

	return hits, fh.Close()
}

// DefaultScoreFraction is the fraction of the best score so far a hit
// must exceed to be accepted.
const DefaultScoreFraction = 0.5

// FilterHits returns the targets of accepted hits, in input order.
// A hit is accepted when its e-value is within the cutoff and its
// score exceeds scoreFraction of the maximum score seen up to and
// including the hit itself. The running maximum is updated before
// each comparison, so the first row compares against its own score.
func FilterHits(hits []Hit, evalueCutoff float64, scoreFraction float64) []string {
	keep := make([]string, 0, len(hits))
	var maxScore float64
	for _, h := range hits {
		if h.Score > maxScore {
			maxScore = h.Score
		}
		if h.Evalue <= evalueCutoff && h.Score > maxScore*scoreFraction {
			keep = append(keep, h.Target)
		}
	}
	return keep
}

// CorrectionFactor loosens the weakest self-hit e-value into a
// permissive cutoff: the self-hits are true positives by definition,
// so the real cutoff must lie beyond the worst of them.
const CorrectionFactor = 1e5

// MinEvalue replaces an all-zero weakest self-hit e-value, which
// cannot be corrected by multiplication.
const MinEvalue = 1e-300

// CutoffFromSelfHits derives a per-profile e-value cutoff from the
// results of searching a profile against its own degapped seed
// sequences: the maximum (weakest) self-hit e-value times
// CorrectionFactor, or MinEvalue when every self-hit reports zero.
func CutoffFromSelfHits(hits []Hit) float64 {
	var maxEvalue float64
	for _, h := range hits {
		if h.Evalue > maxEvalue {
			maxEvalue = h.Evalue
		}
	}
	if maxEvalue == 0 {
		return MinEvalue
	}
	return maxEvalue * CorrectionFactor
}

// Scores returns the score column of all hits.
func Scores(hits []Hit) []float64 {
	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	return scores
}

// Builder wraps the hmmbuild program.
type Builder struct {
	Path string // hmmbuild executable
}

// Command builds the hmmbuild invocation that creates a profile from
// an alignment file at hmmFile. hmmbuild's report on standard output
// is discarded. Run it with hmmFile as the expected output.
func (b *Builder) Command(alignmentFile string, hmmFile string) *xtool.Command {
	return &xtool.Command{
		Path: b.Path,
		Args: []string{hmmFile, alignmentFile},
	}
}

// Build creates a profile from an alignment file at hmmFile.
// A missing output file is returned as *xtool.MissingOutputError.
func (b *Builder) Build(alignmentFile string, hmmFile string) error {
	return b.Command(alignmentFile, hmmFile).Run(hmmFile)
}

// Searcher wraps the hmmsearch program.
type Searcher struct {
	Path string // hmmsearch executable
	CPUs int    // worker count passed through to --cpu

	// LogFile receives hmmsearch's standard output, appended across
	// invocations. Empty means standard output is discarded.
	LogFile string
}

// Command builds the hmmsearch invocation that runs the profile
// against a sequence file, writing the tabular result to tblFile.
// Run it with tblFile as the expected output.
func (s *Searcher) Command(hmmFile string, seqFile string, tblFile string) *xtool.Command {
	return &xtool.Command{
		Path:         s.Path,
		Args:         []string{"--cpu", strconv.Itoa(s.CPUs), "--tblout", tblFile, hmmFile, seqFile},
		Stdout:       s.LogFile,
		AppendStdout: true,
	}
}

// Search runs the profile against a sequence file, writing the
// tabular result to tblFile. A missing output file is returned as
// *xtool.MissingOutputError.
func (s *Searcher) Search(hmmFile string, seqFile string, tblFile string) error {
	return s.Command(hmmFile, seqFile, tblFile).Run(tblFile)
}
