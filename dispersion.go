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

import "gonum.org/v1/gonum/mathext"

/* -------------------------------------------------------------------------- */

// ThetaEstimate is the result of a maximum likelihood estimation of the
// dispersion parameter theta of a negative binomial distribution. If the
// maximum of the likelihood function is attained at a negative value, the
// estimate is truncated at zero and Truncated is set. Converged indicates
// that the Newton iteration finished before reaching the iteration limit.
type ThetaEstimate struct {
  Theta      float64
  StdErr     float64
  Converged  bool
  Truncated  bool
  Iterations int
}

func (obj ThetaEstimate) String() string {
  return fmt.Sprintf("theta = %f [standard error = %f, iterations = %d]", obj.Theta, obj.StdErr, obj.Iterations)
}

/* -------------------------------------------------------------------------- */

func trigamma(x float64) float64 {
  return mathext.Zeta(2.0, x)
}

// derivative of the profile log-likelihood with respect to theta
func thetaScore(y, mu, weights []float64, theta float64) float64 {
  r := 0.0
  for i := 0; i < len(y); i++ {
    r += weights[i]*(mathext.Digamma(theta+y[i]) - mathext.Digamma(theta) + math.Log(theta) + 1.0 - math.Log(theta+mu[i]) - (y[i]+theta)/(mu[i]+theta))
  }
  return r
}

// negative second derivative of the profile log-likelihood
func thetaInfo(y, mu, weights []float64, theta float64) float64 {
  r := 0.0
  for i := 0; i < len(y); i++ {
    r += weights[i]*(-trigamma(theta+y[i]) + trigamma(theta) - 1.0/theta + 2.0/(mu[i]+theta) - (y[i]+theta)/((mu[i]+theta)*(mu[i]+theta)))
  }
  return r
}

/* -------------------------------------------------------------------------- */

// EstimateTheta computes the maximum likelihood estimate of the negative
// binomial dispersion parameter for observed counts y and fitted means mu.
// The estimate is obtained with Newton iterations on the profile score
// function, starting from a method of moments estimate. Weights may be nil,
// in which case every observation carries unit weight. If limit is not
// positive it defaults to 20 iterations, if eps is not positive it defaults
// to the fourth root of the machine epsilon. A perfect fit of the means
// yields an infinite estimate, i.e. the Poisson limit of the negative
// binomial distribution.
func EstimateTheta(y, mu, weights []float64, limit int, eps float64) (ThetaEstimate, error) {
  result := ThetaEstimate{}

  if len(y) != len(mu) {
    return result, fmt.Errorf("estimating dispersion failed: y and mu have different lengths")
  }
  if len(y) == 0 {
    return result, fmt.Errorf("estimating dispersion failed: no observations")
  }
  if weights == nil {
    weights = make([]float64, len(y))
    for i := 0; i < len(y); i++ {
      weights[i] = 1.0
    }
  }
  if len(weights) != len(y) {
    return result, fmt.Errorf("estimating dispersion failed: y and weights have different lengths")
  }
  for i := 0; i < len(mu); i++ {
    if mu[i] <= 0.0 {
      return result, fmt.Errorf("estimating dispersion failed: fitted means must be positive")
    }
  }
  if limit <= 0 {
    limit = 20
  }
  if eps <= 0.0 {
    eps = math.Pow(math.Nextafter(1.0, 2.0)-1.0, 0.25)
  }
  // method of moments estimate
  n := 0.0
  d := 0.0
  for i := 0; i < len(y); i++ {
    n += weights[i]
    d += weights[i]*(y[i]/mu[i] - 1.0)*(y[i]/mu[i] - 1.0)
  }
  if d == 0.0 {
    result.Theta     = math.Inf(1)
    result.StdErr    = math.NaN()
    result.Converged = true
    return result, nil
  }
  t0 := n/d
  it := 0
  de := 1.0
  for it < limit && math.Abs(de) > eps {
    it++
    t0  = math.Abs(t0)
    de  = thetaScore(y, mu, weights, t0)/thetaInfo(y, mu, weights, t0)
    t0 += de
  }
  if math.IsNaN(t0) {
    return result, fmt.Errorf("estimating dispersion failed: estimate diverged")
  }
  result.Iterations = it
  result.Converged  = it != limit
  if t0 < 0.0 {
    t0 = 0.0
    result.Truncated = true
  }
  result.Theta = t0
  if t0 > 0.0 && !math.IsInf(t0, 1) {
    result.StdErr = math.Sqrt(1.0/thetaInfo(y, mu, weights, t0))
  } else {
    result.StdErr = math.NaN()
  }
  return result, nil
}
