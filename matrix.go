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

import "bufio"
import "bytes"
import "compress/gzip"
import "fmt"
import "io"
import "os"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

// ReadMatrix parses a whitespace delimited numeric table. Empty lines are
// skipped, all remaining rows must have the same number of columns.
func ReadMatrix(r io.Reader) ([][]float64, error) {
  matrix  := [][]float64{}
  scanner := bufio.NewScanner(r)

  for scanner.Scan() {
    fields := strings.Fields(scanner.Text())
    if len(fields) == 0 {
      continue
    }
    if len(matrix) > 0 && len(fields) != len(matrix[0]) {
      return nil, fmt.Errorf("reading matrix failed: row %d has %d columns whereas previous rows have %d columns", len(matrix)+1, len(fields), len(matrix[0]))
    }
    row := make([]float64, len(fields))
    for i := 0; i < len(fields); i++ {
      v, err := strconv.ParseFloat(fields[i], 64)
      if err != nil {
        return nil, fmt.Errorf("reading matrix failed: %v", err)
      }
      row[i] = v
    }
    matrix = append(matrix, row)
  }
  if err := scanner.Err(); err != nil {
    return nil, err
  }
  return matrix, nil
}

// ImportMatrix reads a numeric table from the given file, which may be
// gzip compressed.
func ImportMatrix(filename string) ([][]float64, error) {
  f, err := os.Open(filename)
  if err != nil {
    return nil, fmt.Errorf("opening `%s' failed: %v", filename, err)
  }
  defer f.Close()

  if isGzip(filename) {
    g, err := gzip.NewReader(f)
    if err != nil {
      return nil, err
    }
    defer g.Close()
    return ReadMatrix(g)
  }
  return ReadMatrix(f)
}

/* -------------------------------------------------------------------------- */

// WriteMatrix prints the given table tab separated, with every value
// formatted according to the given format string.
func WriteMatrix(w io.Writer, matrix [][]float64, format string) error {
  for i := 0; i < len(matrix); i++ {
    for j := 0; j < len(matrix[i]); j++ {
      if j != 0 {
        if _, err := fmt.Fprintf(w, "\t"); err != nil {
          return err
        }
      }
      if _, err := fmt.Fprintf(w, format, matrix[i][j]); err != nil {
        return err
      }
    }
    if _, err := fmt.Fprintf(w, "\n"); err != nil {
      return err
    }
  }
  return nil
}

// ExportMatrix writes a numeric table to the given file. The output is
// gzip compressed if the filename has a corresponding suffix.
func ExportMatrix(filename string, matrix [][]float64, format string) error {
  buffer := new(bytes.Buffer)

  if err := WriteMatrix(buffer, matrix, format); err != nil {
    return err
  }
  return writeFile(filename, buffer, strings.HasSuffix(filename, ".gz"))
}

/* -------------------------------------------------------------------------- */

func matrixColumn(matrix [][]float64, j int) []float64 {
  r := make([]float64, len(matrix))
  for i := 0; i < len(matrix); i++ {
    r[i] = matrix[i][j]
  }
  return r
}
