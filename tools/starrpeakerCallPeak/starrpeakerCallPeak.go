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
import   "math"
import   "os"
import   "strconv"

import   "github.com/pborman/getopt"
import . "github.com/pbenner/starrpeaker"
import gn "github.com/pbenner/gonetics"

import   "gonum.org/v1/plot"
import   "gonum.org/v1/plot/plotter"
import   "gonum.org/v1/plot/vg"

/* -------------------------------------------------------------------------- */

type Config struct {
  Verbose        int
  Covariates     string
  Threshold      float64
  InputQuantile  float64
  WindowSize     int
  MaxIterations  int
  Tolerance      float64
  SaveHistogram  bool
}

/* i/o
 * -------------------------------------------------------------------------- */

func PrintStderr(config Config, level int, format string, args ...interface{}) {
  if config.Verbose >= level {
    fmt.Fprintf(os.Stderr, format, args...)
  }
}

/* -------------------------------------------------------------------------- */

func savePvalHistogram(config Config, prefix string) {
  filename := prefix + ".pval.bedGraph"

  scores := gn.GRanges{}
  if err := scores.ImportBedGraph(filename); err != nil {
    log.Fatalf("reading `%s' failed: %v", filename, err)
  }
  values := scores.GetMetaFloat("values")
  pvals  := make(plotter.Values, len(values))
  for i := 0; i < len(values); i++ {
    pvals[i] = math.Pow(10.0, -values[i])
  }
  h, err := plotter.NewHist(pvals, 20)
  if err != nil {
    log.Fatal(err)
  }
  p := plot.New()
  p.Title.Text = ""
  p.X.Label.Text = "p-value"
  p.Y.Label.Text = "counts"
  p.Add(h)

  filename = prefix + ".pval.pdf"
  if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
    log.Fatal(err)
  }
  PrintStderr(config, 1, "Wrote p-value histogram to `%s'\n", filename)
}

/* -------------------------------------------------------------------------- */

func callPeak(config Config, filenameBins, filenameCounts, filenameCoverage, prefix string) {

  logger := log.New(ioutil.Discard, "", 0)
  if config.Verbose >= 1 {
    logger = log.New(os.Stderr, "", 0)
  }

  err := CallPeaks(prefix, filenameBins, filenameCounts, config.Covariates, filenameCoverage, OptionLogger{logger}, OptionThreshold{config.Threshold}, OptionInputQuantile{config.InputQuantile}, OptionWindowSize{config.WindowSize}, OptionMaxIterations{config.MaxIterations}, OptionTolerance{config.Tolerance})
  if err != nil {
    log.Fatal(err)
  }

  if config.SaveHistogram {
    savePvalHistogram(config, prefix)
  }
}

/* -------------------------------------------------------------------------- */

func main() {

  var config Config

  config.Threshold     = 0.05
  config.InputQuantile = 0.0
  config.WindowSize    = 500
  config.MaxIterations = 100
  config.Tolerance     = 1e-8

  options := getopt.New()

  optCovariates    := options. StringLong("covariates",           0 , "", "matrix of covariates")
  optThreshold     := options. StringLong("threshold",            0 , "", "false discovery rate cutoff (default: 0.05)")
  optInputQuantile := options. StringLong("min-quantile",         0 , "", "quantile of the positive normalized input counts used as minimum coverage (default: 0)")
  optWindowSize    := options.    IntLong("window-size",          0 , -1, "size of the window used for centering peaks (default: 500)")
  optMaxIterations := options.    IntLong("max-iterations",       0 , -1, "maximum number of iterations for fitting the model (default: 100)")
  optTolerance     := options. StringLong("tolerance",            0 , "", "convergence tolerance for fitting the model (default: 1e-8)")
  optSaveHist      := options.   BoolLong("save-pval-histogram",  0 ,     "save a histogram of p-values as <PREFIX>.pval.pdf")
  optVerbose       := options.CounterLong("verbose",             'v',     "verbose level [-v or -vv]")
  optHelp          := options.   BoolLong("help",                'h',     "print help")

  options.SetParameters("<BINS.bed> <COUNTS.bct> <COVERAGE.bdg> <PREFIX>")
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
  if *optThreshold != "" {
    t, err := strconv.ParseFloat(*optThreshold, 64)
    if err != nil {
      log.Fatal(err)
    }
    config.Threshold = t
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
  config.Covariates    = *optCovariates
  config.SaveHistogram = *optSaveHist

  callPeak(config, options.Args()[0], options.Args()[1], options.Args()[2], options.Args()[3])
}
