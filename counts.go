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
import    "sort"
import    "strings"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

const (
  bamFlagProperPair    = 0x2
  bamFlagReverse       = 0x10
  bamFlagSecondary     = 0x100
  bamFlagSupplementary = 0x800
)

/* -------------------------------------------------------------------------- */

// TemplateCounts holds the number of sequenced templates per bin for the
// input (control) and output (treatment) library of an experiment. The
// normalized input is the input scaled to the sequencing depth of the
// output library, with a pseudocount added to all nonzero entries. The
// coverage tracks record for every position the number of template
// midpoints located there.
type TemplateCounts struct {
  Input           []int
  Output          []int
  NormalizedInput []float64
  TotalInput      int
  TotalOutput     int
  CoverageInput   gn.GRanges
  CoverageOutput  gn.GRanges
}

/* -------------------------------------------------------------------------- */

// drop templates that are not properly paired, not primary, in the wrong
// orientation, or outside the accepted fragment size range
func filterTemplates(config CallPeaksConfig, reads gn.GRanges) gn.GRanges {
  flag1 := reads.GetMetaInt("flag1")
  flag2 := reads.GetMetaInt("flag2")
  idx   := []int{}
  for i := 0; i < reads.Length(); i++ {
    length := reads.Ranges[i].To - reads.Ranges[i].From
    if flag1[i] & bamFlagProperPair == 0 {
      idx = append(idx, i)
      continue
    }
    if (flag1[i] | flag2[i]) & (bamFlagSecondary | bamFlagSupplementary) != 0 {
      idx = append(idx, i)
      continue
    }
    // templates must have one read on the forward and one read on the
    // reverse strand
    if (flag1[i] & bamFlagReverse != 0) == (flag2[i] & bamFlagReverse != 0) {
      idx = append(idx, i)
      continue
    }
    if length < config.FragmentSizeRange[0] || length > config.FragmentSizeRange[1] {
      idx = append(idx, i)
      continue
    }
    if config.FilterDuplicates && (gn.BamFlag(flag1[i]).Duplicate() || gn.BamFlag(flag2[i]).Duplicate()) {
      idx = append(idx, i)
      continue
    }
  }
  config.Logger.Printf("Filtered out %d of %d templates", len(idx), reads.Length())
  return reads.Remove(idx)
}

// reduce every template to the interval of unit length at its midpoint
func templateMidpoints(reads gn.GRanges) gn.GRanges {
  from := make([]int, reads.Length())
  to   := make([]int, reads.Length())
  for i := 0; i < reads.Length(); i++ {
    m := reads.Ranges[i].From + (reads.Ranges[i].To - reads.Ranges[i].From)/2
    from[i] = m
    to  [i] = m+1
  }
  return gn.NewGRanges(reads.Seqnames, from, to, nil)
}

// count for every bin the number of midpoints it overlaps
func countMidpoints(bins, midpoints gn.GRanges) []int {
  counts := make([]int, bins.Length())
  queryHits, _ := gn.FindOverlaps(bins, midpoints)
  for _, i := range queryHits {
    counts[i]++
  }
  return counts
}

// summarize midpoint positions as maximal runs of equal depth, i.e. as
// bedGraph records; chromosomes appear in genome order, positions without
// midpoints are omitted
func coverageRuns(genome gn.Genome, seqnames []string, positions []int) gn.GRanges {
  byChrom := make(map[string][]int)
  for i := 0; i < len(positions); i++ {
    byChrom[seqnames[i]] = append(byChrom[seqnames[i]], positions[i])
  }
  rSeqnames := []string{}
  rFrom     := []int{}
  rTo       := []int{}
  rValues   := []int{}
  for k := 0; k < genome.Length(); k++ {
    pos := byChrom[genome.Seqnames[k]]
    sort.Ints(pos)
    for i := 0; i < len(pos); {
      j := i
      for j < len(pos) && pos[j] == pos[i] {
        j++
      }
      n := len(rValues)
      if n > 0 && rSeqnames[n-1] == genome.Seqnames[k] && rTo[n-1] == pos[i] && rValues[n-1] == j-i {
        rTo[n-1] = pos[i]+1
      } else {
        rSeqnames = append(rSeqnames, genome.Seqnames[k])
        rFrom     = append(rFrom,     pos[i])
        rTo       = append(rTo,       pos[i]+1)
        rValues   = append(rValues,   j-i)
      }
      i = j
    }
  }
  coverage := gn.NewGRanges(rSeqnames, rFrom, rTo, nil)
  coverage.AddMeta("values", rValues)
  return coverage
}

// scale the input counts to the sequencing depth of the output library and
// add a pseudocount to all nonzero entries
func normalizeInput(input []int, totalInput, totalOutput int, pseudocount float64) []float64 {
  r := make([]float64, len(input))
  for i := 0; i < len(input); i++ {
    r[i] = float64(input[i])*float64(totalOutput)/float64(totalInput)
    if r[i] != 0.0 {
      r[i] += pseudocount
    }
  }
  return r
}

/* -------------------------------------------------------------------------- */

// CountTemplates imports the paired-end alignments of the input and output
// library, filters them, and counts for every bin the number of template
// midpoints falling into it. Both alignment files must cover the
// chromosomes of the given genome.
func CountTemplates(filenameInput, filenameOutput string, bins gn.GRanges, genome gn.Genome, options ...interface{}) (*TemplateCounts, error) {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return nil, err
  }
  result := TemplateCounts{}

  for j, filename := range []string{filenameInput, filenameOutput} {
    bamGenome, err := gn.BamImportGenome(filename)
    if err != nil {
      return nil, fmt.Errorf("importing genome from `%s' failed: %v", filename, err)
    }
    for k := 0; k < genome.Length(); k++ {
      if length, err := bamGenome.SeqLength(genome.Seqnames[k]); err != nil || length < genome.Lengths[k] {
        return nil, fmt.Errorf("chromosome `%s' is missing or too short in `%s'", genome.Seqnames[k], filename)
      }
    }
    config.Logger.Printf("Reading alignments from `%s'", filename)
    reads := gn.GRanges{}
    if err := reads.ImportBamPairedEnd(filename, gn.BamReaderOptions{}); err != nil {
      return nil, fmt.Errorf("reading alignments from `%s' failed: %v", filename, err)
    }
    reads     = filterTemplates(config, reads)
    midpoints := templateMidpoints(reads)
    counts    := countMidpoints(bins, midpoints)
    positions := make([]int, midpoints.Length())
    for i := 0; i < midpoints.Length(); i++ {
      positions[i] = midpoints.Ranges[i].From
    }
    coverage := coverageRuns(genome, midpoints.Seqnames, positions)
    if j == 0 {
      result.Input         = counts
      result.TotalInput    = reads.Length()
      result.CoverageInput = coverage
    } else {
      result.Output         = counts
      result.TotalOutput    = reads.Length()
      result.CoverageOutput = coverage
    }
    config.Logger.Printf("Counted %d templates in `%s'", reads.Length(), filename)
  }
  if result.TotalInput == 0 || result.TotalOutput == 0 {
    return nil, fmt.Errorf("counting templates failed: no templates passed filtering")
  }
  result.NormalizedInput = normalizeInput(result.Input, result.TotalInput, result.TotalOutput, config.Pseudocount)

  return &result, nil
}

/* i/o
 * -------------------------------------------------------------------------- */

// Matrix arranges the counts as a table with one row per bin and the
// columns [input, output, normalized input].
func (obj *TemplateCounts) Matrix() [][]float64 {
  matrix := make([][]float64, len(obj.Input))
  for i := 0; i < len(obj.Input); i++ {
    matrix[i] = []float64{float64(obj.Input[i]), float64(obj.Output[i]), obj.NormalizedInput[i]}
  }
  return matrix
}

func (obj *TemplateCounts) WriteMatrix(w io.Writer) error {
  return WriteMatrix(w, obj.Matrix(), "%.5f")
}

func (obj *TemplateCounts) ExportMatrix(filename string) error {
  return ExportMatrix(filename, obj.Matrix(), "%.5f")
}

/* -------------------------------------------------------------------------- */

// WriteCoverage prints coverage records in bedGraph format with integral
// depth values.
func WriteCoverage(w io.Writer, coverage gn.GRanges) error {
  values := coverage.GetMetaInt("values")
  if len(values) != coverage.Length() {
    return fmt.Errorf("writing coverage failed: coverage has no depth values")
  }
  for i := 0; i < coverage.Length(); i++ {
    if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", coverage.Seqnames[i], coverage.Ranges[i].From, coverage.Ranges[i].To, values[i]); err != nil {
      return err
    }
  }
  return nil
}

// ExportCoverage writes coverage records to the given file. The output is
// gzip compressed if the filename has a corresponding suffix.
func ExportCoverage(filename string, coverage gn.GRanges) error {
  buffer := new(bytes.Buffer)

  if err := WriteCoverage(buffer, coverage); err != nil {
    return err
  }
  return writeFile(filename, buffer, strings.HasSuffix(filename, ".gz"))
}
