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

import   "github.com/pborman/getopt"
import . "github.com/pbenner/starrpeaker"
import gn "github.com/pbenner/gonetics"

/* i/o
 * -------------------------------------------------------------------------- */

func PrintStderr(verbose int, level int, format string, args ...interface{}) {
  if verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func bigWig(filenameGenome, filenameBins, filenameCounts, filenamePval, prefix string, verbose int) {

  logger := log.New(ioutil.Discard, "", 0)
  if verbose >= 1 {
    logger = log.New(os.Stderr, "", 0)
  }

  genome := gn.Genome{}
  PrintStderr(verbose, 1, "Reading genome `%s'... ", filenameGenome)
  if err := genome.Import(filenameGenome); err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")

  bins := gn.GRanges{}
  PrintStderr(verbose, 1, "Reading bins `%s'... ", filenameBins)
  if err := bins.ImportBed3(filenameBins); err != nil {
    PrintStderr(verbose, 1, "failed\n")
    log.Fatal(err)
  }
  PrintStderr(verbose, 1, "done\n")

  counts, err := ImportMatrix(filenameCounts)
  if err != nil {
    log.Fatal(err)
  }

  if err := SignalTracks(prefix, bins, counts, genome, OptionLogger{logger}); err != nil {
    log.Fatal(err)
  }
  if filenamePval != "" {
    if err := PValueTrack(prefix, filenamePval, genome, OptionLogger{logger}); err != nil {
      log.Fatal(err)
    }
  }
}

/* -------------------------------------------------------------------------- */

func main() {

  verbose := 0

  options := getopt.New()

  optPval    := options. StringLong("pval",     0 , "", "bedGraph file with p-value scores, converted to <PREFIX>.pval.bw")
  optVerbose := options.CounterLong("verbose", 'v',     "verbose level [-v or -vv]")
  optHelp    := options.   BoolLong("help",    'h',     "print help")

  options.SetParameters("<GENOME> <BINS.bed> <COUNTS.bct> <PREFIX>")
  options.Parse(os.Args)

  // parse options
  //////////////////////////////////////////////////////////////////////////////
  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if *optVerbose != 0 {
    verbose = *optVerbose
  }
  if len(options.Args()) != 4 {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }

  bigWig(options.Args()[0], options.Args()[1], options.Args()[2], *optPval, options.Args()[3], verbose)
}
