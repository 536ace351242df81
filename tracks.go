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

import    "fmt"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

// build a step-resolution track from sliding bins: every bin whose length
// equals the length of the first bin contributes its value to the
// step-sized tile at the bin center, so that consecutive overlapping bins
// yield disjoint tiles; truncated bins are dropped
func trackFromBins(name string, bins gn.GRanges, values []float64, genome gn.Genome) (gn.SimpleTrack, error) {
  if bins.Length() == 0 {
    return gn.SimpleTrack{}, fmt.Errorf("creating track failed: no bins given")
  }
  if len(values) != bins.Length() {
    return gn.SimpleTrack{}, fmt.Errorf("creating track failed: number of values does not match number of bins")
  }
  l := bins.Ranges[0].To - bins.Ranges[0].From
  s := l
  if bins.Length() > 1 && bins.Seqnames[1] == bins.Seqnames[0] && bins.Ranges[1].From > bins.Ranges[0].From {
    s = bins.Ranges[1].From - bins.Ranges[0].From
  }
  index := map[string]int{}
  for i := 0; i < genome.Length(); i++ {
    index[genome.Seqnames[i]] = i
  }
  sequences := make([][]float64, genome.Length())
  for i := 0; i < genome.Length(); i++ {
    sequences[i] = make([]float64, divIntDown(genome.Lengths[i], s))
  }
  for i := 0; i < bins.Length(); i++ {
    if bins.Ranges[i].To - bins.Ranges[i].From != l {
      continue
    }
    k, ok := index[bins.Seqnames[i]]
    if !ok {
      return gn.SimpleTrack{}, fmt.Errorf("creating track failed: bin on unknown chromosome `%s'", bins.Seqnames[i])
    }
    j := (bins.Ranges[i].From + l/2 - s/2)/s
    if j >= 0 && j < len(sequences[k]) {
      sequences[k][j] = values[i]
    }
  }
  return gn.NewSimpleTrack(name, sequences, genome, s)
}

/* -------------------------------------------------------------------------- */

// SignalTracks writes the per-bin input, output, and normalized input
// signals as bigWig files, together with the fold change of the output
// over the normalized input. The fold change is zero wherever the
// normalized input is zero. The count matrix must have three columns in
// the order exported by CountTemplates.
func SignalTracks(prefix string, bins gn.GRanges, counts [][]float64, genome gn.Genome, options ...interface{}) error {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return err
  }
  n := bins.Length()
  if len(counts) != n {
    return fmt.Errorf("writing signal tracks failed: number of counts does not match number of bins")
  }
  input      := make([]float64, n)
  output     := make([]float64, n)
  normalized := make([]float64, n)
  foldChange := make([]float64, n)
  for i := 0; i < n; i++ {
    if len(counts[i]) != 3 {
      return fmt.Errorf("writing signal tracks failed: count matrix must have three columns")
    }
    input     [i] = counts[i][0]
    output    [i] = counts[i][1]
    normalized[i] = counts[i][2]
    if normalized[i] != 0.0 {
      foldChange[i] = output[i]/normalized[i]
    }
  }
  suffixes := []string   {".input.bw", ".output.bw", ".normalized_input.bw", ".fc.bw"}
  signals  := [][]float64{input, output, normalized, foldChange}

  for k := 0; k < len(suffixes); k++ {
    track, err := trackFromBins("", bins, signals[k], genome)
    if err != nil {
      return err
    }
    config.Logger.Printf("Writing track `%s'", prefix+suffixes[k])
    if err := track.ExportBigWig(prefix + suffixes[k]); err != nil {
      return fmt.Errorf("writing track `%s' failed: %v", prefix+suffixes[k], err)
    }
  }
  return nil
}

// PValueTrack converts the p-value scores written by CallPeaks into a
// bigWig track, with every bin reduced to the step-sized tile at its
// center.
func PValueTrack(prefix, filenamePval string, genome gn.Genome, options ...interface{}) error {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return err
  }
  pvals := gn.GRanges{}
  if err := pvals.ImportBedGraph(filenamePval); err != nil {
    return fmt.Errorf("reading `%s' failed: %v", filenamePval, err)
  }
  values := pvals.GetMetaFloat("values")
  if len(values) != pvals.Length() {
    return fmt.Errorf("reading `%s' failed: file has no values", filenamePval)
  }
  track, err := trackFromBins("", pvals, values, genome)
  if err != nil {
    return err
  }
  config.Logger.Printf("Writing track `%s'", prefix+".pval.bw")
  if err := track.ExportBigWig(prefix + ".pval.bw"); err != nil {
    return fmt.Errorf("writing track `%s' failed: %v", prefix+".pval.bw", err)
  }
  return nil
}
