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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/shenwei356/TaxaGraft/taxagraft/align"
	"github.com/shenwei356/TaxaGraft/taxagraft/fasttree"
	"github.com/shenwei356/TaxaGraft/taxagraft/hmmer"
	"github.com/shenwei356/TaxaGraft/taxagraft/mafft"
	"github.com/shenwei356/TaxaGraft/taxagraft/partition"
	"github.com/shenwei356/TaxaGraft/taxagraft/xtool"
)

// ExtendOptions are the parameters of one extend run, collected from
// the command line.
type ExtendOptions struct {
	AlnFiles []string // seed alignments, in input order
	Format   string   // alignment format of the partitioned alignment

	PartitionFile string // when set, AlnFiles must hold exactly one alignment

	TaxaFiles []string // new taxa as protein FASTA files, in input order
	TaxaNames []string // display names, same order and count as TaxaFiles

	Evalue        float64 // fixed e-value cutoff, 0 for per-profile estimation
	ScoreFraction float64 // minimum score relative to the best score so far
	LengthRatio   float64 // minimum ungapped length relative to the median
	MaxHits       int     // max kept hits per taxon per alignment

	NoTrim      bool   // realign freely instead of length-preserving addition
	Supermatrix string // supermatrix output file, empty to skip
	SkipTree    bool   // skip tree inference per extended alignment

	OutDir string

	Builder  *hmmer.Builder
	Searcher *hmmer.Searcher
	Aligner  *mafft.Aligner
	Inferrer *fasttree.Inferrer
}

// hitKey identifies an accepted-hit list by profile and taxon file,
// instead of relying on positional coupling.
type hitKey struct {
	Profile string // profile file path
	Taxon   string // taxon protein file path
}

// extendRun threads the run state through the pipeline stages.
type extendRun struct {
	opt  *Options
	eopt *ExtendOptions

	outputLog bool

	// seed alignments actually extended, after an optional split
	alnFiles []string

	profiles map[string]string  // seed alignment file -> profile file
	cutoffs  map[string]float64 // profile file -> e-value cutoff
	hits     map[hitKey][]*align.Record

	dirPartitions string
	dirProfiles   string
	dirSelfHits   string
	dirHits       string
	dirExtended   string
}

// runEchoed echoes the command line to the log before invoking, the
// way every external tool call in this pipeline is reported.
func runEchoed(cmd *xtool.Command, expectedOutput string, echo bool) error {
	if echo {
		log.Info(cmd.String())
	}
	return cmd.Run(expectedOutput)
}

func newExtendRun(opt *Options, eopt *ExtendOptions) *extendRun {
	return &extendRun{
		opt:       opt,
		eopt:      eopt,
		outputLog: opt.Verbose || opt.Log2File,
		profiles:  make(map[string]string, len(eopt.AlnFiles)),
		cutoffs:   make(map[string]float64, len(eopt.AlnFiles)),
		hits:      make(map[hitKey][]*align.Record, len(eopt.AlnFiles)*len(eopt.TaxaFiles)),
	}
}

// prepareDirs creates the per-stage directories inside the run
// directory, so no two stages ever write the same path.
func (run *extendRun) prepareDirs() {
	run.dirPartitions = filepath.Join(run.eopt.OutDir, "partitions")
	run.dirProfiles = filepath.Join(run.eopt.OutDir, "profiles")
	run.dirSelfHits = filepath.Join(run.eopt.OutDir, "self_hits")
	run.dirHits = filepath.Join(run.eopt.OutDir, "hits")
	run.dirExtended = filepath.Join(run.eopt.OutDir, "extended")

	dirs := []string{run.dirProfiles, run.dirSelfHits, run.dirHits, run.dirExtended}
	if run.eopt.PartitionFile != "" {
		dirs = append(dirs, run.dirPartitions)
	}
	for _, dir := range dirs {
		checkError(os.MkdirAll(dir, 0777))
	}
}

// splitSeed slices the single seed alignment by the partition file,
// replacing the working set of seed alignments with the slices.
func (run *extendRun) splitSeed() {
	eopt := run.eopt
	if eopt.PartitionFile == "" {
		run.alnFiles = eopt.AlnFiles
		return
	}

	partitions, err := partition.ReadFile(eopt.PartitionFile)
	checkError(err)
	if run.outputLog {
		log.Infof("read %d partitions from %s", len(partitions), eopt.PartitionFile)
	}

	aln, err := align.ReadFile(eopt.AlnFiles[0], eopt.Format)
	checkError(err)

	files, err := splitAlignment(aln, eopt.AlnFiles[0], partitions, run.dirPartitions)
	checkError(err)
	if run.outputLog {
		log.Infof("split alignment into %d partitions in %s", len(files), run.dirPartitions)
	}
	run.alnFiles = files
}

// splitAlignment writes one sub-alignment file per partition and
// returns the file paths in partition order.
func splitAlignment(aln *align.Alignment, source string, partitions []partition.Partition, outDir string) ([]string, error) {
	base := baseNameWithoutExt(source)
	files := make([]string, 0, len(partitions))
	for _, p := range partitions {
		sub, err := aln.Slice(p)
		if err != nil {
			return nil, err
		}
		file := filepath.Join(outDir, fmt.Sprintf("%s_%d_%d_part.aln", base, p.Start, p.End))
		if err = sub.WriteFasta(file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// buildProfiles builds one profile per seed alignment and derives its
// e-value cutoff, either fixed or by self-search.
func (run *extendRun) buildProfiles() {
	eopt := run.eopt
	if run.outputLog {
		log.Info("building HMM profiles")
	}

	for _, alnFile := range run.alnFiles {
		hmmFile := filepath.Join(run.dirProfiles, baseNameWithoutExt(alnFile)+".hmm")

		checkError(runEchoed(eopt.Builder.Command(alnFile, hmmFile), hmmFile, run.outputLog))

		run.profiles[alnFile] = hmmFile

		cutoff := eopt.Evalue
		if cutoff == 0 {
			cutoff = run.estimateCutoff(alnFile, hmmFile)
		}
		run.cutoffs[hmmFile] = cutoff
	}
}

// estimateCutoff searches a profile against its own degapped seed
// sequences and loosens the weakest self-hit e-value into a cutoff.
func (run *extendRun) estimateCutoff(alnFile string, hmmFile string) float64 {
	eopt := run.eopt
	base := baseNameWithoutExt(alnFile)

	aln, err := align.ReadFasta(alnFile)
	checkError(err)

	degappedFile := filepath.Join(run.dirSelfHits, base+"_no_gaps.fasta")
	_, err = aln.WriteDegapped(degappedFile, true)
	checkError(err)

	tblFile := filepath.Join(run.dirSelfHits, base+"_self_hmm.tab")
	checkError(runEchoed(eopt.Searcher.Command(hmmFile, degappedFile, tblFile), tblFile, run.outputLog))

	hits, err := hmmer.ParseTblout(tblFile)
	checkError(err)

	cutoff := hmmer.CutoffFromSelfHits(hits)
	if run.outputLog {
		mean, stdev := MeanStdev(hmmer.Scores(hits))
		log.Infof("  calculated e-value for %s as %.3e (%d self-hits, score %.1f ± %.1f)",
			alnFile, cutoff, len(hits), mean, stdev)
	}
	return cutoff
}

// readTaxonProteins reads one taxon's full protein set into a map
// keyed by the sequence ID. Only one taxon's proteins are held in
// memory at a time.
func readTaxonProteins(file string) (map[string]*align.Record, int, error) {
	seqs := make(map[string]*align.Record, 1<<16)
	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, 0, errors.Wrapf(err, "reading %s", file)
	}
	defer fastxReader.Close()

	var n int
	var record *fastx.Record
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, errors.Wrapf(err, "reading %s", file)
		}

		id := string(record.ID)
		seq := make([]byte, len(record.Seq.Seq))
		copy(seq, record.Seq.Seq)
		seqs[id] = &align.Record{ID: id, Seq: seq}
		n++
	}
	return seqs, n, nil
}

// searchTaxa searches every taxon's protein set against every
// profile, filtering raw hits as they are produced. Taxa are the
// outer loop so each protein set is read exactly once.
func (run *extendRun) searchTaxa() {
	eopt := run.eopt
	if run.outputLog {
		log.Info("searching for orthologs in new taxa")
	}

	// process bar
	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDuration chan time.Duration
	var doneDuration chan int
	if run.opt.Verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(eopt.TaxaFiles)*len(run.alnFiles)),
			mpb.PrependDecorators(
				decor.Name("searched: ", decor.WC{W: len("searched: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.EwmaETA(decor.ET_STYLE_GO, 3),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)

		chDuration = make(chan time.Duration, run.opt.NumCPUs)
		doneDuration = make(chan int)
		go func() {
			for t := range chDuration {
				bar.EwmaIncrBy(1, t)
			}
			doneDuration <- 1
		}()
	}

	for _, taxonFile := range eopt.TaxaFiles {
		if run.outputLog {
			log.Infof("reading proteins from %s into memory", taxonFile)
		}
		seqs, n, err := readTaxonProteins(taxonFile)
		checkError(err)
		if run.outputLog {
			log.Infof("  %s proteins", humanize.Comma(int64(n)))
		}

		taxonBase := baseNameWithoutExt(taxonFile)
		for _, alnFile := range run.alnFiles {
			timeStart := time.Now()

			hmmFile := run.profiles[alnFile]
			tblFile := filepath.Join(run.dirHits,
				fmt.Sprintf("%s_%s.tab", taxonBase, baseNameWithoutExt(hmmFile)))

			// echo only to the log file, the progress bar owns stderr
			checkError(runEchoed(eopt.Searcher.Command(hmmFile, taxonFile, tblFile), tblFile, run.opt.Log2File))

			hits, err := hmmer.ParseTblout(tblFile)
			checkError(err)
			kept := hmmer.FilterHits(hits, run.cutoffs[hmmFile], eopt.ScoreFraction)

			records := make([]*align.Record, 0, len(kept))
			for _, id := range kept {
				record, ok := seqs[id]
				if !ok {
					checkError(fmt.Errorf("hit %s not found in %s", id, taxonFile))
				}
				records = append(records, record)
			}
			run.hits[hitKey{Profile: hmmFile, Taxon: taxonFile}] = records

			if run.opt.Verbose {
				chDuration <- time.Since(timeStart)
			}
		}
	}

	if run.opt.Verbose {
		close(chDuration)
		<-doneDuration
		pbs.Wait()
	}
}

// collectSequences merges a seed alignment's degapped members with
// the selected new hits into one unaligned FASTA file. Hits shorter
// than lengthRatio of the seed's median ungapped length are dropped,
// at most maxHits are kept per taxon, and a taxon without a kept hit
// contributes one empty placeholder record so every downstream
// alignment keeps one row per taxon.
func collectSequences(outFile string, seedAln *align.Alignment, seedName string,
	hitLists [][]*align.Record, taxaNames []string,
	lengthRatio float64, maxHits int, doSupermatrix bool, noTrim bool, outputLog bool) error {
	median := seedAln.MedianUngappedLength()
	minLen := float64(median) * lengthRatio

	outfh, err := xopen.Wopen(outFile)
	if err != nil {
		return errors.Wrapf(err, "writing %s", outFile)
	}

	// in length-preserving mode the originals stay in the old
	// alignment itself and mafft adds onto them
	if noTrim {
		for _, r := range seedAln.Records {
			err = align.WriteFastaRecord(outfh, &align.Record{ID: r.ID, Desc: r.Desc, Seq: align.Degap(r.Seq)})
			if err != nil {
				outfh.Close()
				return errors.Wrapf(err, "writing %s", outFile)
			}
		}
	}

	for i, hitList := range hitLists {
		var written int
		for _, record := range hitList {
			if written == maxHits {
				break
			}
			if float64(len(record.Seq)) < minLen {
				continue
			}
			if doSupermatrix {
				record = &align.Record{ID: taxaNames[i], Seq: record.Seq}
			}
			if err = align.WriteFastaRecord(outfh, record); err != nil {
				outfh.Close()
				return errors.Wrapf(err, "writing %s", outFile)
			}
			written++
		}
		if written == 0 {
			// placeholder keeps row identity consistent across alignments
			if _, err = fmt.Fprintf(outfh, ">%s\n", taxaNames[i]); err != nil {
				outfh.Close()
				return errors.Wrapf(err, "writing %s", outFile)
			}
			if outputLog {
				log.Warningf("no hits for %s in %s", taxaNames[i], seedName)
			}
		}
	}

	return outfh.Close()
}

// collectAndExtend runs the per-alignment collection, extension and
// tree inference, assembling the supermatrix on the way when one is
// requested. It returns the per-alignment products for the run info.
func (run *extendRun) collectAndExtend() []AlignmentInfo {
	eopt := run.eopt

	var concat *align.Concatenator
	if eopt.Supermatrix != "" {
		concat = align.NewConcatenator()
	}

	infos := make([]AlignmentInfo, 0, len(run.alnFiles))
	for _, alnFile := range run.alnFiles {
		seedAln, err := align.ReadFasta(alnFile)
		checkError(err)

		hmmFile := run.profiles[alnFile]
		hitLists := make([][]*align.Record, len(eopt.TaxaFiles))
		for i, taxonFile := range eopt.TaxaFiles {
			hitLists[i] = run.hits[hitKey{Profile: hmmFile, Taxon: taxonFile}]
		}

		combinedFile := filepath.Join(run.dirExtended, baseNameWithoutExt(alnFile)+".fasta")
		checkError(collectSequences(combinedFile, seedAln, alnFile, hitLists, eopt.TaxaNames,
			eopt.LengthRatio, eopt.MaxHits, eopt.Supermatrix != "", eopt.NoTrim, run.outputLog))

		var alnOut string
		if eopt.NoTrim {
			c, out := eopt.Aligner.AlignCommand(combinedFile)
			checkError(runEchoed(c, out, run.outputLog))
			alnOut = out
		} else {
			c, out := eopt.Aligner.AddCommand(alnFile, combinedFile)
			checkError(runEchoed(c, out, run.outputLog))
			alnOut = out
		}
		if run.outputLog {
			log.Infof("  alignment of %s completed", alnOut)
		}

		extended, err := align.ReadFasta(alnOut)
		checkError(err)
		if concat != nil {
			checkError(concat.Add(extended))
		}

		if !eopt.SkipTree {
			c, treeOut := eopt.Inferrer.Command(alnOut)
			checkError(runEchoed(c, treeOut, run.outputLog))
		}

		infos = append(infos, AlignmentInfo{
			Seed:     alnFile,
			Profile:  hmmFile,
			Evalue:   run.cutoffs[hmmFile],
			Extended: alnOut,
			Columns:  extended.Columns(),
		})
	}

	if concat != nil {
		checkError(concat.Alignment().WriteFasta(eopt.Supermatrix))
		checkError(partition.WriteFile(eopt.Supermatrix+".partition.txt", concat.Partitions()))
		if run.outputLog {
			log.Infof("supermatrix with %d columns written to %s", concat.Columns(), eopt.Supermatrix)
		}
	}

	return infos
}
