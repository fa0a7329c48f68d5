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

	"github.com/shenwei356/bio/seq"
	"github.com/spf13/cobra"

	"github.com/shenwei356/TaxaGraft/taxagraft/align"
)

var degapCmd = &cobra.Command{
	Use:   "degap",
	Short: "Remove gaps and masked residues from an alignment",
	Long: `Remove gaps and masked residues from an alignment

Strips all "-" and "X" symbols from every sequence of an aligned
FASTA file, producing the unaligned sequence set the alignment was
built from. Records left empty after degapping are dropped with
--remove-empty.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		// ------------------------------

		if len(args) != 1 {
			checkError(fmt.Errorf("exactly one alignment file needed, found %d", len(args)))
		}
		alnFile := args[0]

		outFile := getFlagString(cmd, "out-file")
		removeEmpty := getFlagBool(cmd, "remove-empty")

		aln, err := align.ReadFasta(alnFile)
		checkError(err)

		if isStdin(outFile) {
			outfh, gw, w, err := outStream(outFile, false, opt.CompressionLevel)
			checkError(err)
			defer func() {
				outfh.Flush()
				if gw != nil {
					gw.Close()
				}
				w.Close()
			}()

			for _, r := range aln.Records {
				degapped := align.Degap(r.Seq)
				if removeEmpty && len(degapped) == 0 {
					continue
				}
				checkError(align.WriteFastaRecord(outfh, &align.Record{ID: r.ID, Desc: r.Desc, Seq: degapped}))
			}
			return
		}

		median, err := aln.WriteDegapped(outFile, removeEmpty)
		checkError(err)
		if opt.Verbose || opt.Log2File {
			log.Infof("degapped sequences written to %s, median ungapped length: %d",
				outFile, median)
		}
	},
}

func init() {
	utilsCmd.AddCommand(degapCmd)

	degapCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))

	degapCmd.Flags().BoolP("remove-empty", "", false,
		formatFlagUsage(`Drop records that are empty after degapping.`))

	degapCmd.SetUsageTemplate(usageTemplate("<alignment file> [-o out.fasta]"))
}
