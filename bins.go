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

// MakeBins constructs sliding windows across all chromosomes of the given
// genome. Windows start at every multiple of the step size and are
// truncated at chromosome ends, so that the final windows of a chromosome
// may be shorter than the bin size.
func MakeBins(genome gn.Genome, options ...interface{}) (gn.GRanges, error) {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return gn.GRanges{}, err
  }
  if config.BinSize <= 0 || config.StepSize <= 0 {
    return gn.GRanges{}, fmt.Errorf("creating bins failed: bin size and step size must be positive")
  }
  seqnames := []string{}
  from     := []int{}
  to       := []int{}
  for i := 0; i < genome.Length(); i++ {
    for position := 0; position < genome.Lengths[i]; position += config.StepSize {
      seqnames = append(seqnames, genome.Seqnames[i])
      from     = append(from,     position)
      to       = append(to,       iMin(position+config.BinSize, genome.Lengths[i]))
    }
  }
  return gn.NewGRanges(seqnames, from, to, nil), nil
}

// FilterBlacklist removes every bin that overlaps a blacklisted region.
func FilterBlacklist(bins, blacklist gn.GRanges) gn.GRanges {
  queryHits, _ := gn.FindOverlaps(bins, blacklist)
  return bins.Remove(queryHits)
}

/* -------------------------------------------------------------------------- */

// NonSlidingBins computes the subset of bins that tile the genome without
// overlaps: a bin is selected if it is the first bin of its chromosome or
// if it starts at or after the end of the previously selected bin.
func NonSlidingBins(bins gn.GRanges) []bool {
  result  := make([]bool, bins.Length())
  seqname := ""
  end     := 0
  for i := 0; i < bins.Length(); i++ {
    if i == 0 || bins.Seqnames[i] != seqname {
      seqname   = bins.Seqnames[i]
      end       = bins.Ranges[i].To
      result[i] = true
    } else
    if bins.Ranges[i].From >= end {
      end       = bins.Ranges[i].To
      result[i] = true
    }
  }
  return result
}
