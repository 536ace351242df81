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
  Verbose              int
  BinSize              int
  StepSize             int
  Blacklist            string
  UCSC                 bool
  Covariates         []string
  FragmentSizeRange   [2]int
  Pseudocount          float64
  InputQuantile        float64
  Threshold            float64
  WindowSize           int
  MaxIterations        int
  Tolerance            float64
  FilterDuplicates     bool
  Threads              int
  BigWig               bool
}

/* i/o
 * -------------------------------------------------------------------------- */

func PrintStderr(config Config, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func starrpeaker(config Config, genomeName, filenameInput, filenameOutput, prefix string) {

  logger := log.New(ioutil.Discard, "", 0)
  if config.Verbose >= 1 {
    logger = log.New(os.Stderr, "", 0)
  }

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

  // step 1: genomic bins
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

  filenameBins := prefix + ".bin.bed"
  PrintStderr(config, 1, "Writing bins to `%s'... ", filenameBins)
  if err := bins.ExportBed3(filenameBins, false); err != nil {
    PrintStderr(config, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(config, 1, "done\n")

  // step 2: template counts
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

  // step 3: covariates
  filenameCovariates := ""
  if len(config.Covariates) > 0 {
    matrix, err := CovariateMatrix(bins, config.Covariates, OptionLogger{logger}, OptionThreads{config.Threads})
    if err != nil {
      log.Fatal(err)
    }
    filenameCovariates = prefix + ".cov.tsv"
    PrintStderr(config, 1, "Writing covariates to `%s'... ", filenameCovariates)
    if err := ExportMatrix(filenameCovariates, matrix, "%.2f"); err != nil {
      PrintStderr(config, 1, "failed\n")
      log.Fatal(err)
    }
    PrintStderr(config, 1, "done\n")
  }

  // step 4: peak calling
  err = CallPeaks(prefix, filenameBins, filenameCounts, filenameCovariates, filenameCov1, OptionLogger{logger}, OptionInputQuantile{config.InputQuantile}, OptionThreshold{config.Threshold}, OptionWindowSize{config.WindowSize}, OptionMaxIterations{config.MaxIterations}, OptionTolerance{config.Tolerance})
  if err != nil {
    log.Fatal(err)
  }

  // step 5: bigWig tracks
  if config.BigWig {
    if err := SignalTracks(prefix, bins, counts.Matrix(), genome, OptionLogger{logger}); err != nil {
      log.Fatal(err)
    }
    if err := PValueTrack(prefix, prefix+".pval.bedGraph", genome, OptionLogger{logger}); err != nil {
      log.Fatal(err)
    }
  }
}

/* -------------------------------------------------------------------------- */

func main() {

  var config Config

  config.BinSize           = 500
  config.StepSize          = 100
  config.FragmentSizeRange = [2]int{200, 1000}
  config.Pseudocount       = 1.0
  config.InputQuantile     = 0.0
  config.Threshold         = 0.05
  config.WindowSize        = 500
  config.MaxIterations     = 100
  config.Tolerance         = 1e-8
  config.Threads           = 1

  options := getopt.New()

  optBinSize          := options.    IntLong("bin-size",             0 , -1, "bin size in basepairs (default: 500)")
  optStepSize         := options.    IntLong("step-size",            0 , -1, "step size between consecutive bins (default: 100)")
  optBlacklist        := options. StringLong("blacklist",            0 , "", "bed file with regions to exclude")
  optUCSC             := options.   BoolLong("ucsc",                 0 ,     "fetch chromosome sizes from a UCSC database (e.g. hg38)")
  optCovariates       := options. StringLong("covariates",           0 , "", "comma separated list of covariate bigWig files")
  optSizeRange        := options. StringLong("fragment-size-range",  0 , "", "admissible template length range [format: min:max] (default: 200:1000)")
  optPseudocount      := options. StringLong("pseudocount",          0 , "", "pseudocount added to nonzero normalized input counts (default: 1.0)")
  optInputQuantile    := options. StringLong("min-quantile",         0 , "", "quantile of the positive normalized input counts used as minimum coverage (default: 0)")
  optThreshold        := options. StringLong("threshold",            0 , "", "false discovery rate cutoff (default: 0.05)")
  optWindowSize       := options.    IntLong("window-size",          0 , -1, "size of the window used for centering peaks (default: 500)")
  optMaxIterations    := options.    IntLong("max-iterations",       0 , -1, "maximum number of iterations for fitting the model (default: 100)")
  optTolerance        := options. StringLong("tolerance",            0 , "", "convergence tolerance for fitting the model (default: 1e-8)")
  optFilterDuplicates := options.   BoolLong("filter-duplicates",    0 ,     "remove templates marked as duplicates")
  optThreads          := options.    IntLong("threads",              0 ,  1, "number of threads (default: 1)")
  optBigWig           := options.   BoolLong("bigwig",               0 ,     "write bigWig tracks of all signals")
  optVerbose          := options.CounterLong("verbose",             'v',     "verbose level [-v or -vv]")
  optHelp             := options.   BoolLong("help",                'h',     "print help")

  options.SetParameters("<GENOME> <INPUT.bam> <OUTPUT.bam> <PREFIX>")
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
  if len(options.Args()) != 4 {
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
  if *optCovariates != "" {
    config.Covariates = strings.Split(*optCovariates, ",")
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
  if *optInputQuantile != "" {
    t, err := strconv.ParseFloat(*optInputQuantile, 64)
    if err != nil {
      log.Fatal(err)
    }
    if t < 0.0 || t > 1.0 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.InputQuantile = t
  }
  if *optThreshold != "" {
    t, err := strconv.ParseFloat(*optThreshold, 64)
    if err != nil {
      log.Fatal(err)
    }
    config.Threshold = t
  }
  if *optWindowSize != -1 {
    if *optWindowSize < 1 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.WindowSize = *optWindowSize
  }
  if *optMaxIterations != -1 {
    if *optMaxIterations < 1 {
      options.PrintUsage(os.Stderr)
      os.Exit(1)
    }
    config.MaxIterations = *optMaxIterations
  }
  if *optTolerance != "" {
    t, err := strconv.ParseFloat(*optTolerance, 64)
    if err != nil {
      log.Fatal(err)
    }
    config.Tolerance = t
  }
  if *optThreads < 1 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  } else {
    config.Threads = *optThreads
  }
  config.Blacklist        = *optBlacklist
  config.UCSC             = *optUCSC
  config.FilterDuplicates = *optFilterDuplicates
  config.BigWig           = *optBigWig

  starrpeaker(config, options.Args()[0], options.Args()[1], options.Args()[2], options.Args()[3])
}
