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

/* -------------------------------------------------------------------------- */

// upper tail of the negative binomial distribution evaluated by summing
// the probability mass function
func nbinomTail(k float64, theta, mu float64) float64 {
  p := theta/(theta + mu)
  r := 0.0
  for j := 0.0; j < k; j++ {
    g1, _ := math.Lgamma(j + theta)
    g2, _ := math.Lgamma(theta)
    g3, _ := math.Lgamma(j + 1.0)
    r += math.Exp(g1 - g2 - g3 + theta*math.Log(p) + j*math.Log(1.0-p))
  }
  return 1.0 - r
}

// upper tail of the Poisson distribution evaluated by summing the
// probability mass function
func poissonTail(k float64, mu float64) float64 {
  r := 0.0
  for j := 0.0; j < k; j++ {
    g, _ := math.Lgamma(j + 1.0)
    r += math.Exp(j*math.Log(mu) - mu - g)
  }
  return 1.0 - r
}

/* -------------------------------------------------------------------------- */

func TestUpperTailPValues(t *testing.T) {

  y  := []float64{0.0, 1.0, 3.0, 20.0}
  mu := []float64{2.0, 3.0, 2.0,  2.0}

  p, err := UpperTailPValues(y, mu, 1.5)
  if err != nil {
    t.Error(err); return
  }
  // a count of zero is never significant
  if p[0] != 1.0 {
    t.Error("TestUpperTailPValues failed!")
  }
  // for a count of one the tail probability has a closed form
  if math.Abs(p[1] - (1.0 - math.Pow(1.5/4.5, 1.5))) > 1e-12 {
    t.Error("TestUpperTailPValues failed!")
  }
  if math.Abs(p[2] - nbinomTail( 3.0, 1.5, 2.0)) > 1e-9 {
    t.Error("TestUpperTailPValues failed!")
  }
  if math.Abs(p[3] - nbinomTail(20.0, 1.5, 2.0)) > 1e-9 {
    t.Error("TestUpperTailPValues failed!")
  }
  for i := 0; i < len(p); i++ {
    if p[i] < 0.0 || p[i] > 1.0 {
      t.Error("TestUpperTailPValues failed!")
    }
  }
}

func TestUpperTailPValuesPoisson(t *testing.T) {

  y  := []float64{3.0, 7.0}
  mu := []float64{2.0, 2.5}

  // an infinite dispersion parameter selects the Poisson limit
  p, err := UpperTailPValues(y, mu, math.Inf(1))
  if err != nil {
    t.Error(err); return
  }
  if math.Abs(p[0] - poissonTail(3.0, 2.0)) > 1e-12 {
    t.Error("TestUpperTailPValuesPoisson failed!")
  }
  if math.Abs(p[1] - poissonTail(7.0, 2.5)) > 1e-12 {
    t.Error("TestUpperTailPValuesPoisson failed!")
  }
  // very large dispersion parameters are treated as infinite
  q, err := UpperTailPValues(y, mu, 1e13)
  if err != nil {
    t.Error(err); return
  }
  if p[0] != q[0] || p[1] != q[1] {
    t.Error("TestUpperTailPValuesPoisson failed!")
  }
}

func TestUpperTailPValuesDegenerate(t *testing.T) {

  y  := []float64{0.0, 1.0, 5.0}
  mu := []float64{2.0, 2.0, 2.0}

  // a dispersion of zero puts all mass on zero counts
  p, err := UpperTailPValues(y, mu, 0.0)
  if err != nil {
    t.Error(err); return
  }
  if p[0] != 1.0 || p[1] != 0.0 || p[2] != 0.0 {
    t.Error("TestUpperTailPValuesDegenerate failed!")
  }
  if _, err := UpperTailPValues(y, mu, -1.0); err == nil {
    t.Error("TestUpperTailPValuesDegenerate failed!")
  }
  if _, err := UpperTailPValues(y, mu[0:2], 1.0); err == nil {
    t.Error("TestUpperTailPValuesDegenerate failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestBenjaminiHochberg(t *testing.T) {

  p := []float64{0.005, 0.009, 0.05, 0.5}
  q := BenjaminiHochberg(p)

  expected := []float64{0.018, 0.018, 0.05*4.0/3.0, 0.5}

  for i := 0; i < len(p); i++ {
    if math.Abs(q[i] - expected[i]) > 1e-12 {
      t.Error("TestBenjaminiHochberg failed!")
    }
  }
}

func TestBenjaminiHochbergOrder(t *testing.T) {

  // adjusted p-values must be reported in the order of the input
  p := []float64{0.5, 0.009, 0.05, 0.005}
  q := BenjaminiHochberg(p)

  expected := []float64{0.5, 0.018, 0.05*4.0/3.0, 0.018}

  for i := 0; i < len(p); i++ {
    if math.Abs(q[i] - expected[i]) > 1e-12 {
      t.Error("TestBenjaminiHochbergOrder failed!")
    }
  }
  // adjusted p-values never fall below the raw p-values and never exceed
  // one
  for i := 0; i < len(p); i++ {
    if q[i] < p[i] || q[i] > 1.0 {
      t.Error("TestBenjaminiHochbergOrder failed!")
    }
  }
}

func TestBenjaminiHochbergCap(t *testing.T) {

  p := []float64{0.9, 0.95}
  q := BenjaminiHochberg(p)

  if math.Abs(q[0] - 0.95) > 1e-12 || math.Abs(q[1] - 0.95) > 1e-12 {
    t.Error("TestBenjaminiHochbergCap failed!")
  }
  if len(BenjaminiHochberg(nil)) != 0 {
    t.Error("TestBenjaminiHochbergCap failed!")
  }
}

/* -------------------------------------------------------------------------- */

func TestLogScore(t *testing.T) {

  if math.Abs(logScore(0.01) - 2.0) > 1e-12 {
    t.Error("TestLogScore failed!")
  }
  if logScore(1.0) != 0.0 {
    t.Error("TestLogScore failed!")
  }
  // zero p-values map to a large but finite score
  if s := logScore(0.0); math.IsInf(s, 1) || s < 300.0 {
    t.Error("TestLogScore failed!")
  }
}
