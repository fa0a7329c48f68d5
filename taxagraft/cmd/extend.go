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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"

	"github.com/shenwei356/TaxaGraft/taxagraft/fasttree"
	"github.com/shenwei356/TaxaGraft/taxagraft/hmmer"
	"github.com/shenwei356/TaxaGraft/taxagraft/mafft"
)

var extendCmd = &cobra.Command{
	Use:   "extend",
	Short: "Extend seed alignments with orthologs from new taxa",
	Long: `Extend seed alignments with orthologs from new taxa

This is the main pipeline. For each seed alignment it
  1. builds a HMM profile (hmmbuild),
  2. derives a per-profile e-value cutoff by searching the profile
     against its own degapped sequences, unless -e/--evalue is given,
  3. searches each new taxon's protein set against the profile
     (hmmsearch) and filters hits by e-value and relative score,
  4. keeps up to -m/--max-hits hits per taxon that reach
     -l/--min-len-frac of the median ungapped seed sequence length,
  5. grafts the kept sequences onto the seed alignment with mafft,
     length-preserving by default (--keeplength --addlong) or as a
     free realignment with -r/--no-trim,
  6. infers a guide tree per extended alignment (FastTree), and
  7. optionally concatenates everything into one supermatrix with a
     matching partition file (-U/--supermatrix).

Input:
  1. Seed alignments in aligned FASTA, as positional arguments, a file
     list (-X/--infile-list), or a directory (-A/--aln-dir).
     With -i/--partition, give exactly one alignment (any format of
     -f/--format) to be sliced by the partition file first.
  2. New taxa as protein FASTA files (-t/--taxa, -T/--taxa-dir),
     e.g., multiple translated transcriptomes. Display names default
     to the file base names; override with -n/--taxa-names or a
     tab-delimited mapping file (-N/--name-map).

Attention:
  1. hmmbuild and hmmsearch (http://hmmer.org), mafft and FastTree
     must be installed; paths are configurable with --hmmer-bin,
     --mafft and --fasttree.
  2. Taxa names must be unique when -U/--supermatrix is used, as they
     become the row identifiers of the supermatrix.
  3. Intermediate files are kept in per-stage subdirectories of the
     run directory (profiles/, self_hits/, hits/, extended/) for
     inspection. A run.toml file records parameters and products.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		seq.ValidateSeq = false

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		verbose := opt.Verbose
		outputLog := opt.Verbose || opt.Log2File

		timeStart := time.Now()
		defer func() {
			if outputLog {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------
		// input alignments

		outDir := getFlagString(cmd, "out-dir")
		force := getFlagBool(cmd, "force")
		partitionFile := getFlagString(cmd, "partition")
		format := getFlagString(cmd, "format")

		alnFiles := getFileList(cmd, args, "infile-list", "aln-dir", `.+\.(aln|fa|fas|fasta|phy|nex|stk|sto)(.gz)?$`, opt.NumCPUs)
		if len(alnFiles) == 0 {
			checkError(fmt.Errorf("seed alignments needed, given as positional arguments, -X/--infile-list, or -A/--aln-dir"))
		}
		if partitionFile != "" && len(alnFiles) > 1 {
			checkError(fmt.Errorf("expecting 1 alignment for -i/--partition, found %d", len(alnFiles)))
		}
		for _, file := range alnFiles {
			existed, err := pathutil.Exists(file)
			checkError(errors.Wrap(err, file))
			if !existed {
				checkError(fmt.Errorf("seed alignment not found: %s", file))
			}
		}
		// profile and combined files are named by base name
		if base := duplicatedBaseName(alnFiles); base != "" {
			checkError(fmt.Errorf("seed alignments share the base name %q, please rename", base))
		}

		// ---------------------------------------------------------------
		// taxa files and names

		taxaFiles := getFlagStringSlice(cmd, "taxa")
		taxaDir := getFlagString(cmd, "taxa-dir")
		if len(taxaFiles) == 0 && taxaDir == "" {
			checkError(fmt.Errorf("new taxa needed, given with -t/--taxa or -T/--taxa-dir"))
		}
		if taxaDir != "" {
			pattern, err := regexp.Compile(`.+\.(fa|faa|fas|fasta|pep)(.gz)?$`)
			checkError(err)
			files, err := getFileListFromDir(taxaDir, pattern, opt.NumCPUs)
			checkError(errors.Wrapf(err, "walking -T/--taxa-dir"))
			sort.Strings(files)
			taxaFiles = append(taxaFiles, files...)
		}
		if len(taxaFiles) == 0 {
			checkError(fmt.Errorf("no protein files found for new taxa"))
		}
		for _, file := range taxaFiles {
			existed, err := pathutil.Exists(file)
			checkError(errors.Wrap(err, file))
			if !existed {
				checkError(fmt.Errorf("taxon protein file not found: %s", file))
			}
		}
		// search result tables are named by base name
		if base := duplicatedBaseName(taxaFiles); base != "" {
			checkError(fmt.Errorf("taxa files share the base name %q, please rename", base))
		}

		taxaNames := getFlagStringSlice(cmd, "taxa-names")
		nameMapFile := getFlagString(cmd, "name-map")
		if len(taxaNames) > 0 && nameMapFile != "" {
			checkError(fmt.Errorf("flags -n/--taxa-names and -N/--name-map are mutually exclusive"))
		}
		if len(taxaNames) > 0 && len(taxaNames) != len(taxaFiles) {
			checkError(fmt.Errorf("number of taxa names (%d) does not match number of taxa files (%d)",
				len(taxaNames), len(taxaFiles)))
		}
		if len(taxaNames) == 0 {
			var nameMap map[string]string
			if nameMapFile != "" {
				var err error
				nameMap, err = readKVs(nameMapFile, false)
				checkError(errors.Wrapf(err, "reading -N/--name-map"))
			}
			taxaNames = make([]string, len(taxaFiles))
			for i, file := range taxaFiles {
				base := baseNameWithoutExt(file)
				if name, ok := nameMap[filepath.Base(file)]; ok {
					taxaNames[i] = name
				} else if name, ok := nameMap[base]; ok {
					taxaNames[i] = name
				} else {
					taxaNames[i] = base
				}
			}
		}

		supermatrix := getFlagString(cmd, "supermatrix")
		if supermatrix != "" {
			seen := make(map[string]interface{}, len(taxaNames))
			for _, name := range taxaNames {
				if _, ok := seen[name]; ok {
					checkError(fmt.Errorf("duplicated taxa name not allowed with -U/--supermatrix: %s", name))
				}
				seen[name] = struct{}{}
			}
		}

		// ---------------------------------------------------------------
		// cutoffs and modes

		evalue := getFlagNonNegativeFloat64(cmd, "evalue")
		lengthRatio := getFlagNonNegativeFloat64(cmd, "min-len-frac")
		if lengthRatio > 1 {
			checkError(fmt.Errorf("the value of flag -l/--min-len-frac (%f) should be in range of [0, 1]", lengthRatio))
		}
		maxHits := getFlagPositiveInt(cmd, "max-hits")
		noTrim := getFlagBool(cmd, "no-trim")
		skipTree := getFlagBool(cmd, "skip-tree")
		searchLogFile := getFlagString(cmd, "search-log")

		// ---------------------------------------------------------------
		// external tools

		hmmerBin := getFlagString(cmd, "hmmer-bin")
		mafftPath := expandPath(getFlagString(cmd, "mafft"))
		fasttreePath := expandPath(getFlagString(cmd, "fasttree"))
		hmmbuildPath := expandPath(filepath.Join(hmmerBin, "hmmbuild"))
		hmmsearchPath := expandPath(filepath.Join(hmmerBin, "hmmsearch"))

		// ---------------------------------------------------------------

		if outputLog {
			log.Info("taxagraft v" + VERSION)
			log.Info("  https://github.com/shenwei356/TaxaGraft")
			log.Info()

			log.Info("parameters:")
			log.Infof("  seed alignments: %d", len(alnFiles))
			if partitionFile != "" {
				log.Infof("  partition file: %s, alignment format: %s", partitionFile, format)
			}
			log.Infof("  new taxa: %d", len(taxaFiles))
			if evalue > 0 {
				log.Infof("  e-value cutoff: %.3e (fixed)", evalue)
			} else {
				log.Infof("  e-value cutoff: estimated per profile by self-search")
			}
			log.Infof("  min length fraction of median: %f", lengthRatio)
			log.Infof("  max hits per taxon: %d", maxHits)
			log.Infof("  length-preserving extension: %v", !noTrim)
			if supermatrix != "" {
				log.Infof("  supermatrix: %s", supermatrix)
			}
			log.Infof("  threads: %d", opt.NumCPUs)
			log.Info()
		}

		makeOutDir(outDir, force, "-O/--out-dir", verbose)

		eopt := &ExtendOptions{
			AlnFiles:      alnFiles,
			Format:        format,
			PartitionFile: partitionFile,
			TaxaFiles:     taxaFiles,
			TaxaNames:     taxaNames,
			Evalue:        evalue,
			ScoreFraction: hmmer.DefaultScoreFraction,
			LengthRatio:   lengthRatio,
			MaxHits:       maxHits,
			NoTrim:        noTrim,
			Supermatrix:   supermatrix,
			SkipTree:      skipTree,
			OutDir:        outDir,

			Builder:  &hmmer.Builder{Path: hmmbuildPath},
			Searcher: &hmmer.Searcher{Path: hmmsearchPath, CPUs: opt.NumCPUs, LogFile: searchLogFile},
			Aligner:  &mafft.Aligner{Path: mafftPath},
			Inferrer: &fasttree.Inferrer{Path: fasttreePath},
		}

		run := newExtendRun(opt, eopt)
		run.prepareDirs()
		run.splitSeed()
		run.buildProfiles()
		run.searchTaxa()
		infos := run.collectAndExtend()

		checkError(writeRunInfo(filepath.Join(outDir, FileRunInfo), &RunInfo{
			TaxaGraftVersion: VERSION,
			EvalueCutoff:     evalue,
			LengthRatio:      lengthRatio,
			MaxHits:          maxHits,
			NoTrim:           noTrim,
			ScoreFraction:    hmmer.DefaultScoreFraction,
			TaxaFiles:        taxaFiles,
			TaxaNames:        taxaNames,
			Alignments:       infos,
		}))
		if outputLog {
			log.Infof("run info written to %s", filepath.Join(outDir, FileRunInfo))
		}
	},
}

// getFileList collects input files from positional arguments, a file
// list, or a directory, in that priority order.
func getFileList(cmd *cobra.Command, args []string, listFlag string, dirFlag string, dirPattern string, threads int) []string {
	if len(args) > 0 {
		return args
	}

	listFile := getFlagString(cmd, listFlag)
	if listFile != "" {
		fh, err := xopen.Ropen(listFile)
		checkError(errors.Wrapf(err, "reading --%s", listFlag))
		files := make([]string, 0, 64)
		scanner := bufio.NewScanner(fh)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			files = append(files, line)
		}
		checkError(scanner.Err())
		checkError(fh.Close())
		return files
	}

	dir := getFlagString(cmd, dirFlag)
	if dir != "" {
		pattern, err := regexp.Compile(dirPattern)
		checkError(err)
		files, err := getFileListFromDir(dir, pattern, threads)
		checkError(errors.Wrapf(err, "walking --%s", dirFlag))
		sort.Strings(files)
		return files
	}

	return nil
}

// expandPath expands a leading ~ in an external tool path.
func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		checkError(errors.Wrapf(err, "expanding path: %s", path))
	}
	return expanded
}

func init() {
	RootCmd.AddCommand(extendCmd)

	extendCmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of seed alignment paths (one per line), as an alternative to positional arguments.`))

	extendCmd.Flags().StringP("aln-dir", "A", "",
		formatFlagUsage(`Directory containing seed alignment files.`))

	extendCmd.Flags().StringSliceP("taxa", "t", []string{},
		formatFlagUsage(`New taxa as protein FASTA files (such as multiple translated transcriptomes), comma separated or given multiple times.`))

	extendCmd.Flags().StringP("taxa-dir", "T", "",
		formatFlagUsage(`Directory containing protein FASTA files of new taxa.`))

	extendCmd.Flags().StringSliceP("taxa-names", "n", []string{},
		formatFlagUsage(`Taxa display names for the supermatrix, same order and count as the taxa files. May contain underscores, no spaces.`))

	extendCmd.Flags().StringP("name-map", "N", "",
		formatFlagUsage(`Tab-delimited file mapping taxon file (base) names to display names.`))

	extendCmd.Flags().Float64P("evalue", "e", 0,
		formatFlagUsage(`Fixed e-value cutoff for hmmsearch hits. 0 derives a cutoff per profile from a self-search.`))

	extendCmd.Flags().Float64P("min-len-frac", "l", 0.5,
		formatFlagUsage(`Minimum ungapped hit length as a fraction of the median ungapped seed sequence length.`))

	extendCmd.Flags().IntP("max-hits", "m", 1,
		formatFlagUsage(`Maximum number of kept protein hits per taxon per alignment.`))

	extendCmd.Flags().BoolP("no-trim", "r", false,
		formatFlagUsage(`Realign all sequences from scratch instead of adding onto the seed alignment with preserved column coordinates.`))

	extendCmd.Flags().StringP("partition", "i", "",
		formatFlagUsage(`Partition file (comma-delimited start:end intervals) for splitting one large alignment first.`))

	extendCmd.Flags().StringP("format", "f", "fasta",
		formatFlagUsage(`Alignment format of the alignment to split: fasta, clustal, nexus, phylip, phylip-relaxed, or stockholm.`))

	extendCmd.Flags().StringP("supermatrix", "U", "",
		formatFlagUsage(`Output file for the concatenated supermatrix. A matching partition file with suffix .partition.txt is written next to it.`))

	extendCmd.Flags().StringP("out-dir", "O", "taxagraft_out",
		formatFlagUsage(`Run directory for intermediate and output files.`))

	extendCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite an existing non-empty run directory.`))

	extendCmd.Flags().BoolP("skip-tree", "", false,
		formatFlagUsage(`Do not infer a tree per extended alignment.`))

	extendCmd.Flags().StringP("search-log", "s", "",
		formatFlagUsage(`File accumulating hmmsearch standard output, which is discarded by default.`))

	extendCmd.Flags().StringP("hmmer-bin", "", "",
		formatFlagUsage(`Directory containing the hmmbuild and hmmsearch binaries. Default is to find them in $PATH.`))

	extendCmd.Flags().StringP("mafft", "", "mafft",
		formatFlagUsage(`Path to the mafft binary.`))

	extendCmd.Flags().StringP("fasttree", "", "FastTree",
		formatFlagUsage(`Path to the FastTree (or FastTreeMP) binary.`))

	extendCmd.SetUsageTemplate(usageTemplate("[seed alignments] -t taxa1.fasta,taxa2.fasta [-U supermatrix.fasta] -O out-dir"))
}
