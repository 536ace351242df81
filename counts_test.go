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
import   "bytes"
import   "math"
import   "testing"

import gn "github.com/pbenner/gonetics"

/* -------------------------------------------------------------------------- */

func TestFilterTemplates(t *testing.T) {

  seqnames := []string{"chr1", "chr1", "chr1", "chr1", "chr1", "chr1", "chr1"}
  from     := []int   {  100,    200,    300,    400,      0,      0,    500}
  to       := []int   {  400,    500,    600,    700,    100,   1500,    800}

  flag1 := []int{
    0x2,               // proper pair, forward
    0x0,               // not properly paired
    0x2 | 0x100,       // secondary alignment
    0x2,               // both reads on the forward strand
    0x2,               // fragment too short
    0x2,               // fragment too long
    0x2 | 0x400}       // duplicate
  flag2 := []int{
    0x2 | 0x10,
    0x10,
    0x2 | 0x10,
    0x2,
    0x2 | 0x10,
    0x2 | 0x10,
    0x2 | 0x10}

  reads := gn.NewGRanges(seqnames, from, to, nil)
  reads.AddMeta("flag1", flag1)
  reads.AddMeta("flag2", flag2)

  config := CallPeaksDefaultConfig()

  filtered := filterTemplates(config, reads)

  if filtered.Length() != 2 {
    t.Error("TestFilterTemplates failed!"); return
  }
  if filtered.Ranges[0].From != 100 || filtered.Ranges[1].From != 500 {
    t.Error("TestFilterTemplates failed!")
  }
  config.FilterDuplicates = true

  filtered = filterTemplates(config, reads)

  if filtered.Length() != 1 {
    t.Error("TestFilterTemplates failed!"); return
  }
  if filtered.Ranges[0].From != 100 {
    t.Error("TestFilterTemplates failed!")
  }
}

func TestTemplateMidpoints(t *testing.T) {

  seqnames := []string{"chr1", "chr1", "chr2"}
  from     := []int   {  100,      0,     10}
  to       := []int   {  400,      7,     13}

  reads     := gn.NewGRanges(seqnames, from, to, nil)
  midpoints := templateMidpoints(reads)

  expected := []int{250, 3, 11}

  for i := 0; i < len(expected); i++ {
    if midpoints.Ranges[i].From != expected[i] || midpoints.Ranges[i].To != expected[i]+1 {
      t.Error("TestTemplateMidpoints failed!")
    }
  }
}

func TestCountMidpoints(t *testing.T) {

  bins := gn.NewGRanges(
    []string{"chr1", "chr1"},
    []int   {     0,    500},
    []int   {   500,   1000}, nil)

  midpoints := gn.NewGRanges(
    []string{"chr1", "chr1", "chr1"},
    []int   {   250,    251,    600},
    []int   {   251,    252,    601}, nil)

  counts := countMidpoints(bins, midpoints)

  if counts[0] != 2 || counts[1] != 1 {
    t.Error("TestCountMidpoints failed!")
  }
}

func TestCoverageRuns(t *testing.T) {

  genome := gn.NewGenome([]string{"chr1", "chr2"}, []int{100, 50})

  seqnames  := []string{"chr2", "chr1", "chr1", "chr1", "chr1", "chr1", "chr1"}
  positions := []int   {    7,      5,      5,      6,      9,     20,     21}

  coverage := coverageRuns(genome, seqnames, positions)

  rSeqnames := []string{"chr1", "chr1", "chr1", "chr1", "chr2"}
  rFrom     := []int   {    5,      6,      9,     20,      7}
  rTo       := []int   {    6,      7,     10,     22,      8}
  rValues   := []int   {    2,      1,      1,      1,      1}

  if coverage.Length() != len(rFrom) {
    t.Error("TestCoverageRuns failed!"); return
  }
  values := coverage.GetMetaInt("values")

  for i := 0; i < len(rFrom); i++ {
    if coverage.Seqnames[i] != rSeqnames[i] {
      t.Error("TestCoverageRuns failed!")
    }
    if coverage.Ranges[i].From != rFrom[i] || coverage.Ranges[i].To != rTo[i] {
      t.Error("TestCoverageRuns failed!")
    }
    if values[i] != rValues[i] {
      t.Error("TestCoverageRuns failed!")
    }
  }
}

func TestNormalizeInput(t *testing.T) {

  input := []int{0, 2, 4}

  // zero counts stay zero, nonzero counts are scaled and shifted by the
  // pseudocount
  r := normalizeInput(input, 10, 20, 1.0)

  expected := []float64{0.0, 5.0, 9.0}

  for i := 0; i < len(expected); i++ {
    if math.Abs(r[i] - expected[i]) > 1e-12 {
      t.Error("TestNormalizeInput failed!")
    }
  }
  r = normalizeInput(input, 10, 20, 0.5)

  if math.Abs(r[1] - 4.5) > 1e-12 || r[0] != 0.0 {
    t.Error("TestNormalizeInput failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestWriteCounts(t *testing.T) {

  counts := TemplateCounts{
    Input          : []int{1, 2},
    Output         : []int{3, 4},
    NormalizedInput: []float64{1.5, 2.25}}

  matrix := counts.Matrix()

  if len(matrix) != 2 || matrix[1][2] != 2.25 {
    t.Error("TestWriteCounts failed!")
  }
  buffer := new(bytes.Buffer)

  if err := counts.WriteMatrix(buffer); err != nil {
    t.Error(err); return
  }
  if buffer.String() != "1.00000\t3.00000\t1.50000\n2.00000\t4.00000\t2.25000\n" {
    t.Error("TestWriteCounts failed!")
  }
}

func TestWriteCoverage(t *testing.T) {

  coverage := gn.NewGRanges(
    []string{"chr1", "chr1"},
    []int   {    5,     20},
    []int   {    7,     22}, nil)
  coverage.AddMeta("values", []int{2, 1})

  buffer := new(bytes.Buffer)

  if err := WriteCoverage(buffer, coverage); err != nil {
    t.Error(err); return
  }
  if buffer.String() != "chr1\t5\t7\t2\nchr1\t20\t22\t1\n" {
    t.Error("TestWriteCoverage failed!")
  }
  if err := WriteCoverage(buffer, gn.NewGRanges([]string{"chr1"}, []int{0}, []int{1}, nil)); err == nil {
    t.Error("TestWriteCoverage failed!")
  }
}
