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

import   "fmt"
import   "io/ioutil"
import   "math"
import   "path/filepath"
import   "testing"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

func queryTrack(t *testing.T, filename, seqname string, from, to, binSize int) []float64 {
  f, err := gn.OpenBigWigFile(filename)
  if err != nil {
    t.Error(err)
    return nil
  }
  defer f.Close()

  reader, err := gn.NewBigWigReader(f)
  if err != nil {
    t.Error(err)
    return nil
  }
  s, _, err := reader.QuerySlice(seqname, from, to, gn.BinMean, binSize, 0, math.NaN())
  if err != nil {
    t.Error(err)
    return nil
  }
  return s
}

/* -------------------------------------------------------------------------- */

func TestSignalTracks(t *testing.T) {

  prefix := filepath.Join(t.TempDir(), "test")

  genome := gn.NewGenome([]string{"chr1"}, []int{1000})

  bins, err := MakeBins(genome, OptionBinSize{100}, OptionStepSize{100})
  if err != nil {
    t.Error(err); return
  }
  counts := make([][]float64, bins.Length())
  for i := 0; i < bins.Length(); i++ {
    if i == 0 {
      // the fold change is zero wherever the normalized input is zero
      counts[i] = []float64{0.0, 7.0, 0.0}
    } else {
      counts[i] = []float64{float64(i), 2.0*float64(i), float64(i)}
    }
  }
  if err := SignalTracks(prefix, bins, counts, genome); err != nil {
    t.Error(err); return
  }
  output := queryTrack(t, prefix+".output.bw", "chr1", 0, 1000, 100)
  if len(output) != 10 {
    t.Error("TestSignalTracks failed!"); return
  }
  if math.Abs(output[0] - 7.0) > 1e-6 {
    t.Error("TestSignalTracks failed!")
  }
  for i := 1; i < 10; i++ {
    if math.Abs(output[i] - 2.0*float64(i)) > 1e-6 {
      t.Error("TestSignalTracks failed!")
    }
  }
  fc := queryTrack(t, prefix+".fc.bw", "chr1", 0, 1000, 100)
  if len(fc) != 10 {
    t.Error("TestSignalTracks failed!"); return
  }
  if math.Abs(fc[0]) > 1e-6 {
    t.Error("TestSignalTracks failed!")
  }
  for i := 1; i < 10; i++ {
    if math.Abs(fc[i] - 2.0) > 1e-6 {
      t.Error("TestSignalTracks failed!")
    }
  }
  // the number of rows must match the number of bins
  if err := SignalTracks(prefix, bins, counts[0:2], genome); err == nil {
    t.Error("TestSignalTracks failed!")
  }
}

func TestPValueTrack(t *testing.T) {

  prefix := filepath.Join(t.TempDir(), "test")

  genome := gn.NewGenome([]string{"chr1"}, []int{1000})

  filename := prefix + ".pval.bedGraph"
  data     := ""
  for i := 0; i < 10; i++ {
    data += fmt.Sprintf("chr1\t%d\t%d\t%.3f\n", i*100, (i+1)*100, float64(i)/2.0)
  }
  if err := ioutil.WriteFile(filename, []byte(data), 0644); err != nil {
    t.Error(err); return
  }
  if err := PValueTrack(prefix, filename, genome); err != nil {
    t.Error(err); return
  }
  scores := queryTrack(t, prefix+".pval.bw", "chr1", 0, 1000, 100)
  if len(scores) != 10 {
    t.Error("TestPValueTrack failed!"); return
  }
  for i := 0; i < 10; i++ {
    if math.Abs(scores[i] - float64(i)/2.0) > 1e-6 {
      t.Error("TestPValueTrack failed!")
    }
  }
  if err := PValueTrack(prefix, prefix+".missing.bedGraph", genome); err == nil {
    t.Error("TestPValueTrack failed!")
  }
}
