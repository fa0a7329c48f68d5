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
	"fmt"
	"path/filepath"

	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"

	"github.com/shenwei356/TaxaGraft/taxagraft/align"
	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
)

var concatCmd = &cobra.Command{
	Use:   "concat",
	Short: "Concatenate alignments into a partitioned supermatrix",
	Long: `Concatenate alignments into a partitioned supermatrix

Alignments are concatenated column-wise in input order. All must have
the same number of rows, in consistent row order; the first
alignment's row IDs name the supermatrix rows.

Input alignments are given as positional arguments, or discovered
from the run.toml of a previous "taxagraft extend" run with
--run-dir, preserving that run's alignment order.

A partition file with suffix .partition.txt is written next to the
supermatrix: a single comma-joined line of 1-based inclusive
start:end intervals matching the concatenation exactly.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		// ------------------------------

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			checkError(fmt.Errorf("flag -o/--out-file needed"))
		}
		runDir := getFlagString(cmd, "run-dir")

		outputLog := opt.Verbose || opt.Log2File

		alnFiles := args
		if runDir != "" {
			if len(args) > 0 {
				checkError(fmt.Errorf("positional arguments and --run-dir are mutually exclusive"))
			}
			info, err := readRunInfo(filepath.Join(runDir, FileRunInfo))
			checkError(err)
			for _, a := range info.Alignments {
				alnFiles = append(alnFiles, a.Extended)
			}
			if outputLog {
				log.Infof("found %d extended alignments in %s", len(alnFiles), filepath.Join(runDir, FileRunInfo))
			}
		}
		if len(alnFiles) == 0 {
			checkError(fmt.Errorf("alignment files needed, given as positional arguments or via --run-dir"))
		}

		concat := align.NewConcatenator()
		for _, file := range alnFiles {
			aln, err := align.ReadFasta(file)
			checkError(err)
			checkError(concat.Add(aln))
		}

		checkError(concat.Alignment().WriteFasta(outFile))
		checkError(partition.WriteFile(outFile+".partition.txt", concat.Partitions()))
		if outputLog {
			log.Infof("supermatrix with %d columns written to %s", concat.Columns(), outFile)
			log.Infof("partitions written to %s", outFile+".partition.txt")
		}
	},
}

func init() {
	utilsCmd.AddCommand(concatCmd)

	concatCmd.Flags().StringP("out-file", "o", "",
		formatFlagUsage(`Output file for the supermatrix, supports the ".gz" suffix.`))

	concatCmd.Flags().StringP("run-dir", "", "",
		formatFlagUsage(`Run directory of a previous "taxagraft extend" run; its extended alignments are concatenated in run order.`))

	concatCmd.SetUsageTemplate(usageTemplate("[alignment files] -o supermatrix.fasta"))
}
