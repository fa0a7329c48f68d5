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
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// VERSION of taxagraft
const VERSION = "0.2.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "taxagraft",
	Short: "extending seed protein alignments with orthologs from new taxa",
	Long: fmt.Sprintf(`
TaxaGraft: extending seed protein alignments with orthologs from new taxa

Version: v%s

Documents  : https://github.com/shenwei356/TaxaGraft
Source code: https://github.com/shenwei356/TaxaGraft

TaxaGraft builds a HMM profile per seed alignment (hmmbuild), derives a
per-profile e-value cutoff by searching the profile against its own
sequences, searches each new taxon's protein set against every profile
(hmmsearch), filters and selects hits, grafts them onto the seed
alignments (mafft), and optionally concatenates everything into a
partitioned supermatrix.

`, VERSION),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", runtime.NumCPU(),
		formatFlagUsage(`Number of CPU cores to use, passed through to the external search tool.`))

	RootCmd.PersistentFlags().BoolP("quiet", "", false,
		formatFlagUsage(`Do not print any verbose information. You can write them to a file with --log.`))

	RootCmd.PersistentFlags().StringP("log", "", "",
		formatFlagUsage(`Log file.`))

	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.SetUsageTemplate(usageTemplate(""))
}

func isWindows() bool {
	return runtime.GOOS == "windows"
}

// maxWidthOfFlagUsage is the wrap width of flag usages in help text.
const maxWidthOfFlagUsage = 59

// formatFlagUsage wraps a flag usage to multiple lines for tidy help
// text.
func formatFlagUsage(usage string) string {
	words := strings.Fields(usage)
	if len(words) == 0 {
		return usage
	}

	var buf strings.Builder
	var width int
	for i, word := range words {
		if i > 0 {
			if width+1+len(word) > maxWidthOfFlagUsage {
				buf.WriteString("\n")
				width = 0
			} else {
				buf.WriteString(" ")
				width++
			}
		}
		buf.WriteString(word)
		width += len(word)
	}
	return buf.String()
}

func usageTemplate(s string) string {
	return fmt.Sprintf(`Usage:{{if .Runnable}}
  {{.UseLine}} %s{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsagesWrapped 110 | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsagesWrapped 110 | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`, s)
}
