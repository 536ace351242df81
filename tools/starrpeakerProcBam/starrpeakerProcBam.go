/* Copyright (C) 2020 Philipp Benner
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

/* -------------------------------------------------------------------------- */

import   "fmt"
import   "io/ioutil"
import   "log"
import   "os"
import   "strconv"
import   "strings"

import   "github.com/pborman/getopt"
import . "github.com/pbenner/starrpeaker"
import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

type Config struct {
  Verbose           int
  FragmentSizeRange [2]int
  Pseudocount       float64
  FilterDuplicates  bool
}

/* i/o
 * -------------------------------------------------------------------------- */

func PrintStderr(config Config, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func procBam(config Config, filenameGenome, filenameBins, filenameInput, filenameOutput, prefix string) {

  logger := log.New(ioutil.Discard, "", 0)
  if config.Verbose >= 1 {
    logger = log.New(os.Stderr, "", 0)
  }

  genome := gn.Genome{}
  PrintStderr(config, 1, "Reading genome `%s'... ", filenameGenome)
  if err := genome.Import(filenameGenome); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")

  bins := gn.GRanges{}
  PrintStderr(config, 1, "Reading bins `%s'... ", filenameBins)
  if err := bins.ImportBed3(filenameBins); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")

  counts, err := CountTemplates(filenameInput, filenameOutput, bins, genome, OptionLogger{logger}, OptionFragmentSizeRange{config.FragmentSizeRange}, OptionPseudocount{config.Pseudocount}, OptionFilterDuplicates{config.FilterDuplicates})
  if err != nil {
    log.Fatal(err)
  }

  filenameCounts := prefix + ".bam.bct"
  filenameCov0   := filenameCounts + ".0.bdg"
  filenameCov1   := filenameCounts + ".1.bdg"

  PrintStderr(config, 1, "Writing count matrix to `%s'... ", filenameCounts)
  if err := counts.ExportMatrix(filenameCounts); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")

  PrintStderr(config, 1, "Writing input coverage to `%s'... ", filenameCov0)
  if err := ExportCoverage(filenameCov0, counts.CoverageInput); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")

  PrintStderr(config, 1, "Writing output coverage to `%s'... ", filenameCov1)
  if err := ExportCoverage(filenameCov1, counts.CoverageOutput); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
}

/* -------------------------------------------------------------------------- */

func main() {

  var config Config

  config.FragmentSizeRange = [2]int{200, 1000}
  config.Pseudocount       = 1.0

  options := getopt.New()

  optSizeRange        := options. StringLong("fragment-size-range",  0 , "", "admissible template length range [format: min:max] (default: 200:1000)")
  optPseudocount      := options. StringLong("pseudocount",          0 , "", "pseudocount added to nonzero normalized input counts (default: 1.0)")
  optFilterDuplicates := options.   BoolLong("filter-duplicates",    0 ,     "remove templates marked as duplicates")
  optVerbose          := options.CounterLong("verbose",             'v',     "verbose level [-v or -vv]")
  optHelp             := options.   BoolLong("help",                'h',     "print help")

  options.SetParameters("<GENOME> <BINS.bed> <INPUT.bam> <OUTPUT.bam> <PREFIX>")
  options.Parse(os.Args)

  // parse options
  //////////////////////////////////////////////////////////////////////////////
  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if *optVerbose != 0 {
    config.Verbose = *optVerbose
  }
  if len(options.Args()) != 5 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  if *optSizeRange != "" {
    tmp := strings.Split(*optSizeRange, ":")
    if len(tmp) != 2 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    t1, err := strconv.ParseInt(tmp[0], 10, 64)
    if err != nil {
      log.Fatal(err)
    }
    t2, err := strconv.ParseInt(tmp[1], 10, 64)
    if err != nil {
      log.Fatal(err)
    }
    if t1 > t2 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.FragmentSizeRange[0] = int(t1)
    config.FragmentSizeRange[1] = int(t2)
  }
  if *optPseudocount != "" {
    t, err := strconv.ParseFloat(*optPseudocount, 64)
    if err != nil {
      log.Fatal(err)
    }
    config.Pseudocount = t
  }
  config.FilterDuplicates = *optFilterDuplicates

  procBam(config, options.Args()[0], options.Args()[1], options.Args()[2], options.Args()[3], options.Args()[4])
}
