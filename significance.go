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

import "fmt"
import "math"
import "sort"

import "gonum.org/v1/gonum/mathext"

/* -------------------------------------------------------------------------- */

// UpperTailPValues computes for every observation the probability of a
// count at least as large as y[i] under a negative binomial distribution
// with dispersion theta and mean mu[i]. The tail probability is evaluated
// through the regularized incomplete beta function. An infinite dispersion
// is treated as the Poisson limit of the negative binomial distribution, a
// dispersion of zero as its degenerate limit with all mass at zero counts.
func UpperTailPValues(y, mu []float64, theta float64) ([]float64, error) {
  if len(y) != len(mu) {
    return nil, fmt.Errorf("computing p-values failed: y and mu have different lengths")
  }
  if theta < 0.0 || math.IsNaN(theta) {
    return nil, fmt.Errorf("computing p-values failed: dispersion parameter is invalid")
  }
  p := make([]float64, len(y))
  for i := 0; i < len(y); i++ {
    k := math.Floor(y[i])
    switch {
    case k < 1.0:
      p[i] = 1.0
    case theta == 0.0:
      p[i] = 0.0
    case math.IsInf(theta, 1) || theta > 1e12:
      p[i] = mathext.GammaIncReg(k, mu[i])
    default:
      p[i] = mathext.RegIncBeta(k, theta, mu[i]/(theta+mu[i]))
    }
  }
  return p, nil
}

/* -------------------------------------------------------------------------- */

// BenjaminiHochberg adjusts the given p-values for multiple testing such
// that rejecting all hypotheses with an adjusted p-value below a given
// threshold controls the false discovery rate at that threshold.
func BenjaminiHochberg(pvalues []float64) []float64 {
  n := len(pvalues)

  index := make([]int, n)
  for i := 0; i < n; i++ {
    index[i] = i
  }
  sort.Slice(index, func(i, j int) bool {
    return pvalues[index[i]] < pvalues[index[j]]
  })
  result := make([]float64, n)
  q := math.Inf(1)
  for i := n-1; i >= 0; i-- {
    v := pvalues[index[i]]*float64(n)/float64(i+1)
    if v < q {
      q = v
    }
    result[index[i]] = math.Min(q, 1.0)
  }
  return result
}

/* -------------------------------------------------------------------------- */

// negative decadic logarithm, with the argument clamped at the smallest
// positive double to keep zero p-values out of the logarithm
func logScore(p float64) float64 {
  if p < math.SmallestNonzeroFloat64 {
    p = math.SmallestNonzeroFloat64
  }
  return -math.Log10(p)
}
