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

import "gonum.org/v1/gonum/mat"

/* -------------------------------------------------------------------------- */

// ModelState tracks the progress of the two-stage regression. A model in
// state ModelPoisson carries the estimates of the first stage, a model in
// state ModelNegativeBinomial the refitted estimates of the second stage.
type ModelState int

const (
  ModelUnfit            ModelState = iota
  ModelPoisson
  ModelNegativeBinomial
)

func (state ModelState) String() string {
  switch state {
  case ModelPoisson:
    return "Poisson"
  case ModelNegativeBinomial:
    return "negative binomial"
  default:
    return "unfit"
  }
}

/* -------------------------------------------------------------------------- */

// ConvergenceError indicates that one of the two regression stages failed.
// There is no fallback for a failed regression, callers must abort.
type ConvergenceError struct {
  State      ModelState
  Iterations int
  Reason     string
}

func (err ConvergenceError) Error() string {
  return fmt.Sprintf("fitting %v model failed after %d iterations: %s", err.State, err.Iterations, err.Reason)
}

/* -------------------------------------------------------------------------- */

// construct a design matrix with a leading intercept column
func designMatrix(covariates [][]float64, n int) ([][]float64, error) {
  k := 0
  if len(covariates) > 0 {
    k = len(covariates[0])
    if len(covariates) != n {
      return nil, fmt.Errorf("invalid covariates: expected %d rows but found %d", n, len(covariates))
    }
  }
  x := make([][]float64, n)
  for i := 0; i < n; i++ {
    x[i] = make([]float64, k+1)
    x[i][0] = 1.0
    if k > 0 {
      if len(covariates[i]) != k {
        return nil, fmt.Errorf("invalid covariates: rows have unequal lengths")
      }
      for j := 0; j < k; j++ {
        x[i][j+1] = covariates[i][j]
      }
    }
  }
  return x, nil
}

// solve the weighted least squares system given by the design matrix x,
// response z, and weights w; the solution is the minimum norm solution, which
// is well defined also for design matrices without full column rank
func wlsSolve(x [][]float64, z, w []float64) ([]float64, error) {
  n := len(x)
  p := len(x[0])
  a := mat.NewDense(n, p, nil)
  b := mat.NewVecDense(n, nil)
  for i := 0; i < n; i++ {
    s := math.Sqrt(w[i])
    for j := 0; j < p; j++ {
      a.Set(i, j, s*x[i][j])
    }
    b.SetVec(i, s*z[i])
  }
  svd := mat.SVD{}
  if ok := svd.Factorize(a, mat.SVDThin); !ok {
    return nil, fmt.Errorf("singular value decomposition failed")
  }
  // singular values below 1e-12 times the largest singular value are
  // treated as zero
  rank := svd.Rank(1e-12)
  if rank == 0 {
    return nil, fmt.Errorf("design matrix has rank zero")
  }
  beta := mat.VecDense{}
  svd.SolveVecTo(&beta, b, rank)
  r := make([]float64, p)
  for j := 0; j < p; j++ {
    r[j] = beta.AtVec(j)
  }
  return r, nil
}

// iteratively reweighted least squares for a regression model with
// logarithmic link function and the given offset. If alpha is zero the
// working weights are those of a Poisson model, otherwise those of a
// negative binomial model with dispersion 1/alpha. If start is nil the
// means are initialized canonically, otherwise start is used as initial
// coefficient vector.
func irls(y []float64, x [][]float64, offset []float64, alpha float64, start []float64, limit int, tol float64) ([]float64, []float64, int, error) {
  n := len(y)
  p := len(x[0])

  beta := make([]float64, p)
  eta  := make([]float64, n)
  mu   := make([]float64, n)
  w    := make([]float64, n)
  z    := make([]float64, n)

  if start != nil {
    copy(beta, start)
    for i := 0; i < n; i++ {
      eta[i] = offset[i]
      for j := 0; j < p; j++ {
        eta[i] += x[i][j]*beta[j]
      }
      mu[i] = math.Exp(eta[i])
    }
  } else {
    ybar := 0.0
    for i := 0; i < n; i++ {
      ybar += y[i]
    }
    ybar /= float64(n)
    for i := 0; i < n; i++ {
      mu [i] = (y[i] + ybar)/2.0
      eta[i] = math.Log(mu[i])
    }
  }
  for it := 0; it < limit; it++ {
    for i := 0; i < n; i++ {
      if alpha == 0.0 {
        w[i] = mu[i]
      } else {
        w[i] = mu[i]/(1.0 + alpha*mu[i])
      }
      z[i] = eta[i] - offset[i] + (y[i] - mu[i])/mu[i]
    }
    betaNew, err := wlsSolve(x, z, w)
    if err != nil {
      return nil, nil, it+1, err
    }
    delta := 0.0
    for j := 0; j < p; j++ {
      if d := math.Abs(betaNew[j] - beta[j]); d > delta {
        delta = d
      }
      beta[j] = betaNew[j]
      if math.IsNaN(beta[j]) || math.IsInf(beta[j], 0) {
        return nil, nil, it+1, fmt.Errorf("estimates are not finite")
      }
    }
    for i := 0; i < n; i++ {
      eta[i] = offset[i]
      for j := 0; j < p; j++ {
        eta[i] += x[i][j]*beta[j]
      }
      mu[i] = math.Exp(eta[i])
      if mu[i] == 0.0 || math.IsInf(mu[i], 1) {
        return nil, nil, it+1, fmt.Errorf("fitted means are degenerate")
      }
    }
    if delta < tol {
      return beta, mu, it+1, nil
    }
  }
  return nil, nil, limit, fmt.Errorf("maximum number of iterations reached")
}

/* -------------------------------------------------------------------------- */

// MeanModel is the result of regressing observed treatment counts on a set
// of covariates with the logarithm of the exposure as offset. Mu holds the
// fitted means of the training observations. Theta0 is the dispersion of
// the counts around the first stage Poisson fit, Theta the dispersion
// around the final fit.
type MeanModel struct {
  State        ModelState
  Coefficients []float64
  Mu           []float64
  Theta0       ThetaEstimate
  Theta        ThetaEstimate
}

// FitMeanModel estimates the expected treatment counts with a two-stage
// procedure: a Poisson regression determines an initial set of coefficients
// and an initial dispersion estimate, which parametrizes the working weights
// of a subsequent negative binomial regression. The second stage is warm
// started with the Poisson coefficients. If the initial dispersion estimate
// is truncated at zero, the negative binomial weights are undefined and the
// Poisson fit is kept as the final model.
func FitMeanModel(y, exposure []float64, covariates [][]float64, config CallPeaksConfig) (MeanModel, error) {
  model := MeanModel{State: ModelUnfit}

  if len(y) != len(exposure) {
    return model, fmt.Errorf("fitting mean model failed: y and exposure have different lengths")
  }
  if len(y) == 0 {
    return model, fmt.Errorf("fitting mean model failed: no observations")
  }
  x, err := designMatrix(covariates, len(y))
  if err != nil {
    return model, err
  }
  offset := make([]float64, len(exposure))
  for i := 0; i < len(exposure); i++ {
    if exposure[i] <= 0.0 {
      return model, fmt.Errorf("fitting mean model failed: exposure must be positive")
    }
    offset[i] = math.Log(exposure[i])
  }
  // first stage
  beta, mu, iterations, err := irls(y, x, offset, 0.0, nil, config.MaxIterations, config.Tolerance)
  if err != nil {
    return model, ConvergenceError{ModelPoisson, iterations, err.Error()}
  }
  config.Logger.Printf("Poisson regression converged after %d iterations", iterations)
  model.State        = ModelPoisson
  model.Coefficients = beta
  model.Mu           = mu
  if theta0, err := EstimateTheta(y, mu, nil, 0, 0.0); err != nil {
    return model, err
  } else {
    model.Theta0 = theta0
  }
  config.Logger.Printf("Estimated initial dispersion: %v", model.Theta0)
  if !model.Theta0.Converged {
    config.Logger.Printf("Warning: dispersion estimation reached iteration limit")
  }
  // second stage
  if model.Theta0.Truncated {
    config.Logger.Printf("Warning: initial dispersion estimate truncated at zero, keeping Poisson model")
  } else {
    beta, mu, iterations, err = irls(y, x, offset, 1.0/model.Theta0.Theta, model.Coefficients, config.MaxIterations, config.Tolerance)
    if err != nil {
      return model, ConvergenceError{ModelNegativeBinomial, iterations, err.Error()}
    }
    config.Logger.Printf("Negative binomial regression converged after %d iterations", iterations)
    model.State        = ModelNegativeBinomial
    model.Coefficients = beta
    model.Mu           = mu
  }
  if theta, err := EstimateTheta(y, model.Mu, nil, 0, 0.0); err != nil {
    return model, err
  } else {
    model.Theta = theta
  }
  config.Logger.Printf("Estimated dispersion: %v", model.Theta)
  if model.Theta.Truncated {
    config.Logger.Printf("Warning: dispersion estimate truncated at zero")
  }
  if !model.Theta.Converged {
    config.Logger.Printf("Warning: dispersion estimation reached iteration limit")
  }
  return model, nil
}

// Predict evaluates the fitted mean model for the given exposures and
// covariates.
func (model MeanModel) Predict(exposure []float64, covariates [][]float64) ([]float64, error) {
  if model.State == ModelUnfit {
    return nil, fmt.Errorf("predicting means failed: model is not fitted")
  }
  x, err := designMatrix(covariates, len(exposure))
  if err != nil {
    return nil, err
  }
  if len(x) > 0 && len(x[0]) != len(model.Coefficients) {
    return nil, fmt.Errorf("predicting means failed: wrong number of covariates")
  }
  mu := make([]float64, len(exposure))
  for i := 0; i < len(exposure); i++ {
    if exposure[i] <= 0.0 {
      return nil, fmt.Errorf("predicting means failed: exposure must be positive")
    }
    eta := math.Log(exposure[i])
    for j := 0; j < len(model.Coefficients); j++ {
      eta += x[i][j]*model.Coefficients[j]
    }
    mu[i] = math.Exp(eta)
  }
  return mu, nil
}
