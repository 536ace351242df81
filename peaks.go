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
import    "math"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

// MergePeaks consolidates overlapping and directly adjacent bins into
// maximal runs. The score columns pScore and qScore are aggregated by
// taking the maximum over all merged bins, the columns pValue and qValue
// by taking the minimum. Bins must be sorted by position within each
// chromosome.
func MergePeaks(peaks gn.GRanges) gn.GRanges {
  pScore := peaks.GetMetaFloat("pScore")
  qScore := peaks.GetMetaFloat("qScore")
  pValue := peaks.GetMetaFloat("pValue")
  qValue := peaks.GetMetaFloat("qValue")

  hasScores := len(pScore) == peaks.Length() && len(qScore) == peaks.Length() &&
               len(pValue) == peaks.Length() && len(qValue) == peaks.Length()

  seqnames := []string{}
  from     := []int{}
  to       := []int{}
  mPScore  := []float64{}
  mQScore  := []float64{}
  mPValue  := []float64{}
  mQValue  := []float64{}

  for i := 0; i < peaks.Length(); i++ {
    n := len(seqnames)
    if n > 0 && seqnames[n-1] == peaks.Seqnames[i] && peaks.Ranges[i].From <= to[n-1] {
      if peaks.Ranges[i].To > to[n-1] {
        to[n-1] = peaks.Ranges[i].To
      }
      if hasScores {
        mPScore[n-1] = math.Max(mPScore[n-1], pScore[i])
        mQScore[n-1] = math.Max(mQScore[n-1], qScore[i])
        mPValue[n-1] = math.Min(mPValue[n-1], pValue[i])
        mQValue[n-1] = math.Min(mQValue[n-1], qValue[i])
      }
    } else {
      seqnames = append(seqnames, peaks.Seqnames[i])
      from     = append(from,     peaks.Ranges[i].From)
      to       = append(to,       peaks.Ranges[i].To)
      if hasScores {
        mPScore = append(mPScore, pScore[i])
        mQScore = append(mQScore, qScore[i])
        mPValue = append(mPValue, pValue[i])
        mQValue = append(mQValue, qValue[i])
      }
    }
  }
  result := gn.NewGRanges(seqnames, from, to, nil)
  if hasScores {
    result.AddMeta("pScore", mPScore)
    result.AddMeta("qScore", mQScore)
    result.AddMeta("pValue", mPValue)
    result.AddMeta("qValue", mQValue)
  }
  return result
}

/* -------------------------------------------------------------------------- */

// compute the maximal coverage window within the peak [from, to); the
// result spans all windows attaining the maximal coverage sum
func centerWindow(from, to int, coverage gn.GRanges, values []float64, hits []int, windowSize int) (int, int) {
  length := to - from
  if length <= windowSize {
    return from, to
  }
  depth := make([]float64, length)
  for _, k := range hits {
    lo := iMax(coverage.Ranges[k].From, from)
    hi := iMin(coverage.Ranges[k].To,   to)
    for p := lo; p < hi; p++ {
      depth[p-from] = values[k]
    }
  }
  sum := 0.0
  for p := 0; p < windowSize; p++ {
    sum += depth[p]
  }
  best  := sum
  first := 0
  last  := 0
  for s := 1; s+windowSize <= length; s++ {
    sum += depth[s+windowSize-1] - depth[s-1]
    if sum > best {
      best  = sum
      first = s
      last  = s
    } else
    if sum == best {
      last = s
    }
  }
  return from + first, from + last + windowSize
}

// CenterPeaks re-centers every peak on its region of maximal coverage: the
// depth profile of the peak is scanned with a sliding window of the given
// size and the peak is replaced by the interval spanning all fully
// contained windows that attain the maximal coverage sum. Peaks shorter
// than the window are left unchanged. Peaks that do not intersect any
// coverage record cannot be centered and are dropped from the result,
// their indices are returned as the second value.
func CenterPeaks(peaks, coverage gn.GRanges, windowSize int) (gn.GRanges, []int, error) {
  if windowSize <= 0 {
    return gn.GRanges{}, nil, fmt.Errorf("centering peaks failed: window size must be positive")
  }
  values := coverage.GetMetaFloat("values")
  if len(values) != coverage.Length() {
    return gn.GRanges{}, nil, fmt.Errorf("centering peaks failed: coverage has no depth values")
  }
  queryHits, subjectHits := gn.FindOverlaps(peaks, coverage)

  hits := make([][]int, peaks.Length())
  for k := 0; k < len(queryHits); k++ {
    hits[queryHits[k]] = append(hits[queryHits[k]], subjectHits[k])
  }
  kept    := []int{}
  skipped := []int{}
  from    := []int{}
  to      := []int{}
  for i := 0; i < peaks.Length(); i++ {
    if len(hits[i]) == 0 {
      skipped = append(skipped, i)
      continue
    }
    f, t := centerWindow(peaks.Ranges[i].From, peaks.Ranges[i].To, coverage, values, hits[i], windowSize)
    kept  = append(kept, i)
    from  = append(from, f)
    to    = append(to,   t)
  }
  result := peaks.Subset(kept)
  for k := 0; k < len(kept); k++ {
    result.Ranges[k].From = from[k]
    result.Ranges[k].To   = to  [k]
  }
  return result, skipped, nil
}
