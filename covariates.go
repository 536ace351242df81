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

import    "github.com/pbenner/threadpool"

/* -------------------------------------------------------------------------- */

// compute the mean signal per bin for a single covariate file; bins
// without data are assigned a value of zero
func covariateColumn(config CallPeaksConfig, bins gn.GRanges, filename string, matrix [][]float64, j int) error {
  f, err := gn.OpenBigWigFile(filename)
  if err != nil {
    return fmt.Errorf("opening `%s' failed: %v", filename, err)
  }
  defer f.Close()

  reader, err := gn.NewBigWigReader(f)
  if err != nil {
    return fmt.Errorf("reading `%s' failed: %v", filename, err)
  }
  for i := 0; i < bins.Length(); i++ {
    seqname := bins.Seqnames[i]
    from    := bins.Ranges[i].From
    to      := bins.Ranges[i].To
    s, _, err := reader.QuerySlice(seqname, from, to, gn.BinMean, to-from, 0, math.NaN())
    if err != nil {
      return fmt.Errorf("querying `%s' failed: %v", filename, err)
    }
    if len(s) != 1 {
      return fmt.Errorf("querying `%s' failed: unexpected number of summary values", filename)
    }
    if math.IsNaN(s[0]) {
      matrix[i][j] = 0.0
    } else {
      matrix[i][j] = s[0]
    }
  }
  config.Logger.Printf("Processed covariate file `%s'", filename)
  return nil
}

/* -------------------------------------------------------------------------- */

// CovariateMatrix computes for every bin the mean signal of each of the
// given bigWig files. The resulting table has one row per bin and one
// column per file. Covariate files are processed in parallel.
func CovariateMatrix(bins gn.GRanges, filenamesBw []string, options ...interface{}) ([][]float64, error) {
  config := CallPeaksDefaultConfig()
  if err := config.importOptions(options); err != nil {
    return nil, err
  }
  matrix := make([][]float64, bins.Length())
  for i := 0; i < bins.Length(); i++ {
    matrix[i] = make([]float64, len(filenamesBw))
  }
  if len(filenamesBw) == 0 {
    return matrix, nil
  }
  pool := threadpool.New(config.Threads, 100*config.Threads)

  err := pool.RangeJob(0, len(filenamesBw), func(j int, pool threadpool.ThreadPool, erf func() error) error {
    return covariateColumn(config, bins, filenamesBw[j], matrix, j)
  })
  if err != nil {
    return nil, err
  }
  return matrix, nil
}
