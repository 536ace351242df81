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
import   "log"
import   "os"
import   "strings"

import   "github.com/pborman/getopt"
import . "github.com/pbenner/starrpeaker"
import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

type Config struct {
  Verbose   int
  BinSize   int
  StepSize  int
  Blacklist string
  UCSC      bool
}

/* i/o
 * -------------------------------------------------------------------------- */

func PrintStderr(config Config, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func makeBin(config Config, genomeName, filenameOut string) {

  genome := gn.Genome{}

  if config.UCSC {
    PrintStderr(config, 1, "Fetching chromosome sizes for `%s' from UCSC... ", genomeName)
    if g, err := UCSCImportGenome(genomeName); err != nil {
      PrintStderr(config, 1, "failed\n")
      log.Fatal(err)
    } else {
      genome = g
    }
    PrintStderr(config, 1, "done\n")
  } else {
    PrintStderr(config, 1, "Reading genome `%s'... ", genomeName)
    if err := genome.Import(genomeName); err != nil {
      PrintStderr(config, 1, "failed\n")
      log.Fatal(err)
    }
    PrintStderr(config, 1, "done\n")
  }

  bins, err := MakeBins(genome, OptionBinSize{config.BinSize}, OptionStepSize{config.StepSize})
  if err != nil {
    log.Fatal(err)
  }
  PrintStderr(config, 1, "Generated %d bins\n", bins.Length())

  if config.Blacklist != "" {
    blacklist := gn.GRanges{}
    PrintStderr(config, 1, "Reading blacklist `%s'... ", config.Blacklist)
    if err := blacklist.ImportBed3(config.Blacklist); err != nil {
      PrintStderr(config, 1, "failed\n")
      log.Fatal(err)
    }
    PrintStderr(config, 1, "done\n")
    n   := bins.Length()
    bins = FilterBlacklist(bins, blacklist)
    PrintStderr(config, 1, "Removed %d blacklisted bins\n", n-bins.Length())
  }

  PrintStderr(config, 1, "Writing bins to `%s'... ", filenameOut)
  if err := bins.ExportBed3(filenameOut, strings.HasSuffix(filenameOut, ".gz")); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")
}

/* -------------------------------------------------------------------------- */

func main() {

  var config Config

  config.BinSize  = 500
  config.StepSize = 100

  options := getopt.New()

  optBinSize   := options.    IntLong("bin-size",   0 , -1, "bin size in basepairs (default: 500)")
  optStepSize  := options.    IntLong("step-size",  0 , -1, "step size between consecutive bins (default: 100)")
  optBlacklist := options. StringLong("blacklist",  0 , "", "bed file with regions to exclude")
  optUCSC      := options.   BoolLong("ucsc",       0 ,     "fetch chromosome sizes from a UCSC database (e.g. hg38)")
  optVerbose   := options.CounterLong("verbose",   'v',     "verbose level [-v or -vv]")
  optHelp      := options.   BoolLong("help",      'h',     "print help")

  options.SetParameters("<GENOME> <RESULT.bed>")
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
  if len(options.Args()) != 2 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }
  if *optBinSize != -1 {
    if *optBinSize < 1 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.BinSize = *optBinSize
  }
  if *optStepSize != -1 {
    if *optStepSize < 1 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.StepSize = *optStepSize
  }
  config.Blacklist = *optBlacklist
  config.UCSC      = *optUCSC

  makeBin(config, options.Args()[0], options.Args()[1])
}
