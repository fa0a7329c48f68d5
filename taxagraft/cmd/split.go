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

	"github.com/rdleal/intervalst/interval"
	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"

	"github.com/shenwei356/TaxaGraft/taxagraft/align"
	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split an alignment into sub-alignments by a partition file",
	Long: `Split an alignment into sub-alignments by a partition file

The partition file is comma- and/or newline-delimited text of 1-based
inclusive column intervals, e.g.,

  1:136,137:301
  302:477

One aligned-FASTA file per interval is written into the output
directory, named <alignment>_<start>_<end>_part.aln, in partition
order. Overlapping intervals are reported but not rejected.

Accepted alignment formats (-f/--format): fasta, clustal, nexus,
phylip, phylip-relaxed, stockholm.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		// ------------------------------

		if len(args) != 1 {
			checkError(fmt.Errorf("exactly one alignment file needed, found %d", len(args)))
		}
		alnFile := args[0]

		partitionFile := getFlagString(cmd, "partition")
		if partitionFile == "" {
			checkError(fmt.Errorf("flag -i/--partition needed"))
		}
		format := getFlagString(cmd, "format")
		outDir := getFlagString(cmd, "out-dir")
		force := getFlagBool(cmd, "force")

		outputLog := opt.Verbose || opt.Log2File

		partitions, err := partition.ReadFile(partitionFile)
		checkError(err)
		if len(partitions) == 0 {
			checkError(fmt.Errorf("no partitions found in %s", partitionFile))
		}
		if outputLog {
			log.Infof("read %d partitions from %s", len(partitions), partitionFile)
		}

		// report overlaps, which break supermatrix column bookkeeping
		// downstream but are not forbidden here
		cmpFn := func(x, y int) int { return x - y }
		itree := interval.NewSearchTree[string, int](cmpFn)
		for _, p := range partitions {
			// half-open query/insert intervals, so touching
			// partitions do not count as overlapping
			if prev, ok := itree.AnyIntersection(p.Start, p.End+1); ok {
				log.Warningf("partition %s overlaps %s", p.String(), prev)
			}
			checkError(itree.Insert(p.Start, p.End+1, p.String()))
		}

		aln, err := align.ReadFile(alnFile, format)
		checkError(err)
		if outputLog {
			log.Infof("read alignment %s: %d rows, %d columns", alnFile, aln.Rows(), aln.Columns())
		}

		makeOutDir(outDir, force, "-O/--out-dir", opt.Verbose)

		files, err := splitAlignment(aln, alnFile, partitions, outDir)
		checkError(err)
		if outputLog {
			log.Infof("%d sub-alignments written to %s", len(files), outDir)
		}
	},
}

func init() {
	utilsCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringP("partition", "i", "",
		formatFlagUsage(`Partition file of comma-delimited start:end intervals, 1-based and inclusive.`))

	splitCmd.Flags().StringP("format", "f", "fasta",
		formatFlagUsage(`Alignment format: fasta, clustal, nexus, phylip, phylip-relaxed, or stockholm.`))

	splitCmd.Flags().StringP("out-dir", "O", "partitions",
		formatFlagUsage(`Output directory for the sub-alignment files.`))

	splitCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite an existing non-empty output directory.`))

	splitCmd.SetUsageTemplate(usageTemplate("<alignment file> -i partition.txt -O out-dir"))
}
