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

//import   "fmt"
import   "math"
import   "testing"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

func TestMergePeaks(t *testing.T) {

  seqnames := []string{"chr1", "chr1", "chr1", "chr2"}
  from     := []int   {  100,    600,   1200,      0}
  to       := []int   {  600,   1100,   1700,    500}

  peaks := gn.NewGRanges(seqnames, from, to, nil)
  peaks.AddMeta("pScore", []float64{2.0,  3.0,  1.0,  4.0})
  peaks.AddMeta("qScore", []float64{1.5,  2.5,  0.5,  3.5})
  peaks.AddMeta("pValue", []float64{1e-3, 1e-4, 1e-2, 1e-5})
  peaks.AddMeta("qValue", []float64{5e-2, 6e-3, 8e-2, 2e-4})

  merged := MergePeaks(peaks)

  if merged.Length() != 3 {
    t.Error("TestMergePeaks failed!"); return
  }
  // the first two bins are directly adjacent and must be merged
  if merged.Seqnames[0] != "chr1" || merged.Ranges[0].From != 100 || merged.Ranges[0].To != 1100 {
    t.Error("TestMergePeaks failed!")
  }
  if merged.Seqnames[1] != "chr1" || merged.Ranges[1].From != 1200 || merged.Ranges[1].To != 1700 {
    t.Error("TestMergePeaks failed!")
  }
  if merged.Seqnames[2] != "chr2" || merged.Ranges[2].From != 0 || merged.Ranges[2].To != 500 {
    t.Error("TestMergePeaks failed!")
  }
  pScore := merged.GetMetaFloat("pScore")
  qScore := merged.GetMetaFloat("qScore")
  pValue := merged.GetMetaFloat("pValue")
  qValue := merged.GetMetaFloat("qValue")

  // scores are aggregated with the maximum, p-values with the minimum
  if math.Abs(pScore[0] - 3.0) > 1e-12 || math.Abs(qScore[0] - 2.5) > 1e-12 {
    t.Error("TestMergePeaks failed!")
  }
  if math.Abs(pValue[0] - 1e-4) > 1e-16 || math.Abs(qValue[0] - 6e-3) > 1e-16 {
    t.Error("TestMergePeaks failed!")
  }
  if math.Abs(pScore[2] - 4.0) > 1e-12 || math.Abs(pValue[2] - 1e-5) > 1e-16 {
    t.Error("TestMergePeaks failed!")
  }
}

func TestMergePeaksOverlapping(t *testing.T) {

  seqnames := []string{"chr1", "chr1", "chr1"}
  from     := []int   {  100,    400,   1000}
  to       := []int   {  600,    900,   1500}

  peaks  := gn.NewGRanges(seqnames, from, to, nil)
  merged := MergePeaks(peaks)

  if merged.Length() != 2 {
    t.Error("TestMergePeaksOverlapping failed!"); return
  }
  if merged.Ranges[0].From != 100 || merged.Ranges[0].To != 900 {
    t.Error("TestMergePeaksOverlapping failed!")
  }
  if merged.Ranges[1].From != 1000 || merged.Ranges[1].To != 1500 {
    t.Error("TestMergePeaksOverlapping failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestCenterPeaks(t *testing.T) {

  peaks := gn.NewGRanges([]string{"chr1"}, []int{0}, []int{1000}, nil)

  coverage := gn.NewGRanges(
    []string{"chr1", "chr1", "chr1"},
    []int   {     0,    250,    750},
    []int   {   250,    750,   1000}, nil)
  coverage.AddMeta("values", []float64{1.0, 10.0, 1.0})

  // the window of maximal coverage is unique and spans the central plateau
  centered, skipped, err := CenterPeaks(peaks, coverage, 500)
  if err != nil {
    t.Error(err); return
  }
  if len(skipped) != 0 {
    t.Error("TestCenterPeaks failed!")
  }
  if centered.Length() != 1 {
    t.Error("TestCenterPeaks failed!"); return
  }
  if centered.Ranges[0].From != 250 || centered.Ranges[0].To != 750 {
    t.Error("TestCenterPeaks failed!")
  }
}

func TestCenterPeaksFlat(t *testing.T) {

  peaks := gn.NewGRanges([]string{"chr1"}, []int{100}, []int{700}, nil)

  coverage := gn.NewGRanges([]string{"chr1"}, []int{100}, []int{700}, nil)
  coverage.AddMeta("values", []float64{10.0})

  // under uniform coverage all windows are tied and the peak is recovered
  // unchanged
  centered, skipped, err := CenterPeaks(peaks, coverage, 500)
  if err != nil {
    t.Error(err); return
  }
  if len(skipped) != 0 || centered.Length() != 1 {
    t.Error("TestCenterPeaksFlat failed!"); return
  }
  if centered.Ranges[0].From != 100 || centered.Ranges[0].To != 700 {
    t.Error("TestCenterPeaksFlat failed!")
  }
}

func TestCenterPeaksShort(t *testing.T) {

  peaks := gn.NewGRanges([]string{"chr1"}, []int{100}, []int{400}, nil)

  coverage := gn.NewGRanges([]string{"chr1"}, []int{0}, []int{1000}, nil)
  coverage.AddMeta("values", []float64{5.0})

  // peaks shorter than the window are not re-centered
  centered, _, err := CenterPeaks(peaks, coverage, 500)
  if err != nil {
    t.Error(err); return
  }
  if centered.Length() != 1 {
    t.Error("TestCenterPeaksShort failed!"); return
  }
  if centered.Ranges[0].From != 100 || centered.Ranges[0].To != 400 {
    t.Error("TestCenterPeaksShort failed!")
  }
}

func TestCenterPeaksSkipped(t *testing.T) {

  seqnames := []string{"chr1", "chr2"}
  from     := []int   {     0,      0}
  to       := []int   {   600,    600}

  peaks := gn.NewGRanges(seqnames, from, to, nil)
  peaks.AddMeta("pScore", []float64{1.0, 2.0})

  coverage := gn.NewGRanges([]string{"chr1"}, []int{0}, []int{600}, nil)
  coverage.AddMeta("values", []float64{7.0})

  // the second peak has no coverage and must be dropped
  centered, skipped, err := CenterPeaks(peaks, coverage, 500)
  if err != nil {
    t.Error(err); return
  }
  if len(skipped) != 1 || skipped[0] != 1 {
    t.Error("TestCenterPeaksSkipped failed!")
  }
  if centered.Length() != 1 {
    t.Error("TestCenterPeaksSkipped failed!"); return
  }
  if centered.Ranges[0].From != 0 || centered.Ranges[0].To != 600 {
    t.Error("TestCenterPeaksSkipped failed!")
  }
  pScore := centered.GetMetaFloat("pScore")
  if len(pScore) != 1 || pScore[0] != 1.0 {
    t.Error("TestCenterPeaksSkipped failed!")
  }
}

func TestCenterPeaksArguments(t *testing.T) {

  peaks    := gn.NewGRanges([]string{"chr1"}, []int{0}, []int{1000}, nil)
  coverage := gn.NewGRanges([]string{"chr1"}, []int{0}, []int{1000}, nil)

  // the coverage track must carry depth values
  if _, _, err := CenterPeaks(peaks, coverage, 500); err == nil {
    t.Error("TestCenterPeaksArguments failed!")
  }
  coverage.AddMeta("values", []float64{1.0})
  if _, _, err := CenterPeaks(peaks, coverage, 0); err == nil {
    t.Error("TestCenterPeaksArguments failed!")
  }
}
