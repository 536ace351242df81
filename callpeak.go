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

package starrpeaker

/* -------------------------------------------------------------------------- */

import    "bytes"
import    "fmt"
import    "io"
import    "io/ioutil"
import    "log"
import    "math"
import    "sort"
import    "strings"

import gn "github.com/pbenner/gonetics"

import    "gonum.org/v1/gonum/stat"

/* -------------------------------------------------------------------------- */

type OptionLogger struct {
  Value *log.Logger
}

type OptionBinSize struct {
  Value int
}

type OptionStepSize struct {
  Value int
}

type OptionFragmentSizeRange struct {
  Value [2]int
}

type OptionPseudocount struct {
  Value float64
}

type OptionInputQuantile struct {
  Value float64
}

type OptionThreshold struct {
  Value float64
}

type OptionWindowSize struct {
  Value int
}

type OptionMaxIterations struct {
  Value int
}

type OptionTolerance struct {
  Value float64
}

type OptionFilterDuplicates struct {
  Value bool
}

type OptionThreads struct {
  Value int
}

/* -------------------------------------------------------------------------- */

// CallPeaksConfig collects the parameters of all pipeline stages, from
// counting templates to exporting the final set of peaks.
type CallPeaksConfig struct {
  Logger            *log.Logger
  BinSize            int
  StepSize           int
  FragmentSizeRange  [2]int
  Pseudocount        float64
  InputQuantile      float64
  Threshold          float64
  WindowSize         int
  MaxIterations      int
  Tolerance          float64
  FilterDuplicates   bool
  Threads            int
}

func CallPeaksDefaultConfig() CallPeaksConfig {
  config := CallPeaksConfig{}
  // set default values
  config.Logger            = log.New(ioutil.Discard, "", 0)
  config.BinSize           = 500
  config.StepSize          = 100
  config.FragmentSizeRange = [2]int{200, 1000}
  config.Pseudocount       = 1.0
  config.InputQuantile     = 0.0
  config.Threshold         = 0.05
  config.WindowSize        = 500
  config.MaxIterations     = 100
  config.Tolerance         = 1e-8
  config.FilterDuplicates  = false
  config.Threads           = 1
  return config
}

func (config *CallPeaksConfig) importOptions(options []interface{}) error {
  // parse options
  for _, option := range options {
    switch opt := option.(type) {
    case OptionLogger:
      config.Logger = opt.Value
    case OptionBinSize:
      config.BinSize = opt.Value
    case OptionStepSize:
      config.StepSize = opt.Value
    case OptionFragmentSizeRange:
      config.FragmentSizeRange = opt.Value
    case OptionPseudocount:
      config.Pseudocount = opt.Value
    case OptionInputQuantile:
      config.InputQuantile = opt.Value
    case OptionThreshold:
      config.Threshold = opt.Value
    case OptionWindowSize:
      config.WindowSize = opt.Value
    case OptionMaxIterations:
      config.MaxIterations = opt.Value
    case OptionTolerance:
      config.Tolerance = opt.Value
    case OptionFilterDuplicates:
      config.FilterDuplicates = opt.Value
    case OptionThreads:
      config.Threads = opt.Value
    default:
      return fmt.Errorf("invalid option: %v", opt)
    }
  }
  return nil
}

/* i/o
 * -------------------------------------------------------------------------- */

func writePeaks(w io.Writer, peaks gn.GRanges) error {
  pScore := peaks.GetMetaFloat("pScore")
  qScore := peaks.GetMetaFloat("qScore")
  pValue := peaks.GetMetaFloat("pValue")
  qValue := peaks.GetMetaFloat("qValue")
  if len(pScore) != peaks.Length() || len(qScore) != peaks.Length() || len(pValue) != peaks.Length() || len(qValue) != peaks.Length() {
    return fmt.Errorf("peaks have no score columns")
  }
  for i := 0; i < peaks.Length(); i++ {
    if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\t%.3f\t%.5e\t%.5e\n", peaks.Seqnames[i], peaks.Ranges[i].From, peaks.Ranges[i].To, pScore[i], qScore[i], pValue[i], qValue[i]); err != nil {
      return err
    }
  }
  return nil
}

func exportPeaks(filename string, peaks gn.GRanges) error {
  var buffer bytes.Buffer
  if err := writePeaks(&buffer, peaks); err != nil {
    return err
  }
  return writeFile(filename, &buffer, strings.HasSuffix(filename, ".gz"))
}

func writeBinScores(w io.Writer, bins gn.GRanges, scores []float64) error {
  if len(scores) != bins.Length() {
    return fmt.Errorf("bins have no score column")
  }
  for i := 0; i < bins.Length(); i++ {
    if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\n", bins.Seqnames[i], bins.Ranges[i].From, bins.Ranges[i].To, math.Abs(scores[i])); err != nil {
      return err
    }
  }
  return nil
}

func exportBinScores(filename string, bins gn.GRanges, scores []float64) error {
  var buffer bytes.Buffer
  if err := writeBinScores(&buffer, bins, scores); err != nil {
    return err
  }
  return writeFile(filename, &buffer, strings.HasSuffix(filename, ".gz"))
}

/* -------------------------------------------------------------------------- */

// CallPeaks fits the count model on all non-sliding bins with sufficient
// input coverage and exports every region where the observed output count
// significantly exceeds the model prediction. The argument filenameBins
// must name a bed file of genomic bins, filenameCounts the corresponding
// count matrix, and filenameCoverage a bedGraph file with the basepair
// resolution output coverage used for centering peaks. A matrix of
// covariates may be given as filenameCovariates, or omitted with an empty
// string. Four files are created: [prefix].peak.bed with all significant
// bins, [prefix].pval.bedGraph with the p-value score of every tested bin,
// [prefix].peak.merged.bed with overlapping significant bins merged, and
// [prefix].peak.final.bed with merged peaks centered on the coverage
// maximum. No output file is written if an error occurs at any stage.
func CallPeaks(prefix, filenameBins, filenameCounts, filenameCovariates, filenameCoverage string, options ...interface{}) error {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return err
  }
  if config.InputQuantile < 0.0 || config.InputQuantile > 1.0 {
    return fmt.Errorf("invalid input quantile: %f", config.InputQuantile)
  }
  // import bins and count data
  bins := gn.GRanges{}
  if err := bins.ImportBed3(filenameBins); err != nil {
    return fmt.Errorf("importing bins from `%s' failed: %v", filenameBins, err)
  }
  if bins.Length() == 0 {
    return fmt.Errorf("bin file `%s' is empty", filenameBins)
  }
  counts, err := ImportMatrix(filenameCounts)
  if err != nil {
    return err
  }
  if len(counts) != bins.Length() {
    return fmt.Errorf("count matrix `%s' has %d rows whereas %d bins were given", filenameCounts, len(counts), bins.Length())
  }
  if len(counts[0]) != 3 {
    return fmt.Errorf("count matrix `%s' has %d columns whereas 3 were expected", filenameCounts, len(counts[0]))
  }
  covariates := [][]float64{}
  if filenameCovariates != "" {
    if covariates, err = ImportMatrix(filenameCovariates); err != nil {
      return err
    }
    if len(covariates) != bins.Length() {
      return fmt.Errorf("covariates matrix `%s' has %d rows whereas %d bins were given", filenameCovariates, len(covariates), bins.Length())
    }
  }
  y        := matrixColumn(counts, 1)
  exposure := matrixColumn(counts, 2)

  // bins with a normalized input count below this threshold are excluded
  // from the analysis
  positive := []float64{}
  for i := 0; i < len(exposure); i++ {
    if exposure[i] > 0.0 {
      positive = append(positive, exposure[i])
    }
  }
  if len(positive) == 0 {
    return fmt.Errorf("count matrix `%s' has no bins with positive normalized input counts", filenameCounts)
  }
  sort.Float64s(positive)
  minInput := stat.Quantile(config.InputQuantile, stat.LinInterp, positive, nil)
  config.Logger.Printf("Minimum normalized input coverage: %f", minInput)

  covered := []int{}
  for i := 0; i < bins.Length(); i++ {
    if exposure[i] > minInput {
      covered = append(covered, i)
    }
  }
  nonSliding := NonSlidingBins(bins)
  training   := []int{}
  for _, i := range covered {
    if nonSliding[i] {
      training = append(training, i)
    }
  }
  config.Logger.Printf("Removing %d bins with insufficient input coverage", bins.Length()-len(covered))
  config.Logger.Printf("Estimating model parameters on %d non-sliding bins", len(training))
  if len(training) == 0 {
    return fmt.Errorf("no bins left for estimating the model parameters")
  }
  yTrain        := make([]float64, len(training))
  exposureTrain := make([]float64, len(training))
  for k, i := range training {
    yTrain[k]        = y[i]
    exposureTrain[k] = exposure[i]
  }
  covTrain := [][]float64{}
  if len(covariates) > 0 {
    covTrain = make([][]float64, len(training))
    for k, i := range training {
      covTrain[k] = covariates[i]
    }
  }
  model, err := FitMeanModel(yTrain, exposureTrain, covTrain, config)
  if err != nil {
    return err
  }
  // evaluate the model on all covered bins, including sliding bins
  yCovered        := make([]float64, len(covered))
  exposureCovered := make([]float64, len(covered))
  for k, i := range covered {
    yCovered[k]        = y[i]
    exposureCovered[k] = exposure[i]
  }
  covCovered := [][]float64{}
  if len(covariates) > 0 {
    covCovered = make([][]float64, len(covered))
    for k, i := range covered {
      covCovered[k] = covariates[i]
    }
  }
  mu, err := model.Predict(exposureCovered, covCovered)
  if err != nil {
    return err
  }
  config.Logger.Printf("Computing p-values for %d bins", len(covered))
  pValue, err := UpperTailPValues(yCovered, mu, model.Theta.Theta)
  if err != nil {
    return err
  }
  qValue := BenjaminiHochberg(pValue)
  pScore := make([]float64, len(covered))
  qScore := make([]float64, len(covered))
  for i := 0; i < len(covered); i++ {
    pScore[i] = logScore(pValue[i])
    qScore[i] = logScore(qValue[i])
  }
  binsCovered := bins.Subset(covered)

  significant := []int{}
  for i := 0; i < len(covered); i++ {
    if qValue[i] <= config.Threshold {
      significant = append(significant, i)
    }
  }
  config.Logger.Printf("Found %d significant bins at a false discovery rate of %f", len(significant), config.Threshold)

  peaksPScore := make([]float64, len(significant))
  peaksQScore := make([]float64, len(significant))
  peaksPValue := make([]float64, len(significant))
  peaksQValue := make([]float64, len(significant))
  for k, i := range significant {
    peaksPScore[k] = pScore[i]
    peaksQScore[k] = qScore[i]
    peaksPValue[k] = pValue[i]
    peaksQValue[k] = qValue[i]
  }
  peaks := binsCovered.Subset(significant)
  peaks.AddMeta("pScore", peaksPScore)
  peaks.AddMeta("qScore", peaksQScore)
  peaks.AddMeta("pValue", peaksPValue)
  peaks.AddMeta("qValue", peaksQValue)

  merged := MergePeaks(peaks)
  config.Logger.Printf("Merged %d significant bins into %d peaks", peaks.Length(), merged.Length())

  coverage := gn.GRanges{}
  if err := coverage.ImportBedGraph(filenameCoverage); err != nil {
    return fmt.Errorf("importing coverage from `%s' failed: %v", filenameCoverage, err)
  }
  final, skipped, err := CenterPeaks(merged, coverage, config.WindowSize)
  if err != nil {
    return err
  }
  for _, i := range skipped {
    config.Logger.Printf("Warning: peak %s:%d-%d has no coverage and was dropped", merged.Seqnames[i], merged.Ranges[i].From, merged.Ranges[i].To)
  }
  // all statistics were computed successfully, write results
  filenamePeaks  := prefix + ".peak.bed"
  filenameScores := prefix + ".pval.bedGraph"
  filenameMerged := prefix + ".peak.merged.bed"
  filenameFinal  := prefix + ".peak.final.bed"

  config.Logger.Printf("Writing significant bins to `%s'", filenamePeaks)
  if err := exportPeaks(filenamePeaks, peaks); err != nil {
    return fmt.Errorf("writing peaks to `%s' failed: %v", filenamePeaks, err)
  }
  config.Logger.Printf("Writing p-value track to `%s'", filenameScores)
  if err := exportBinScores(filenameScores, binsCovered, pScore); err != nil {
    return fmt.Errorf("writing p-value track to `%s' failed: %v", filenameScores, err)
  }
  config.Logger.Printf("Writing merged peaks to `%s'", filenameMerged)
  if err := exportPeaks(filenameMerged, merged); err != nil {
    return fmt.Errorf("writing merged peaks to `%s' failed: %v", filenameMerged, err)
  }
  config.Logger.Printf("Writing final peaks to `%s'", filenameFinal)
  if err := exportPeaks(filenameFinal, final); err != nil {
    return fmt.Errorf("writing final peaks to `%s' failed: %v", filenameFinal, err)
  }
  return nil
}
