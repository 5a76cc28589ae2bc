package embfile

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
)

// Initializer generates vectors for the out-of-vocabulary rows of
// BuildMatrix.
type Initializer interface {
	// Generate returns a new vector of the given size.
	Generate(vectorSize int) ([]float64, error)
}

// FitInitializer is an Initializer that derives its parameters from the
// vectors found in the file. BuildMatrix fits it before generating any row.
type FitInitializer interface {
	Initializer

	// Fit computes generation parameters from the given vectors.
	Fit(vectors [][]float64)
}

// Zeros returns an initializer generating zero vectors. Passing it to
// BuildMatrix is equivalent to leaving the missing rows untouched; it exists
// to make that choice explicit.
func Zeros() Initializer { return zerosInitializer{} }

type zerosInitializer struct{}

func (zerosInitializer) Generate(vectorSize int) ([]float64, error) {
	return make([]float64, vectorSize), nil
}

// Normal returns an initializer sampling every component from a normal
// distribution with fixed parameters. A deviation <= 0 selects
// 1/vectorSize.
func Normal(mean, deviation float64) Initializer {
	return &normalInitializer{mean: mean, deviation: deviation}
}

type normalInitializer struct {
	mean, deviation float64
}

func (in *normalInitializer) Generate(vectorSize int) ([]float64, error) {
	dev := in.deviation
	if dev <= 0 {
		dev = 1 / float64(vectorSize)
	}
	vec := make([]float64, vectorSize)
	for i := range vec {
		vec[i] = rand.NormFloat64()*dev + in.mean
	}
	return vec, nil
}

// NormalInitializer samples every component i from a normal distribution
// with the mean and standard deviation that component has across the fitted
// vectors. It is the default initializer of BuildMatrix, fit to the found
// vectors, so generated rows blend in with the real ones.
//
// It must be fit before it can generate.
type NormalInitializer struct {
	mean, stddev []float64
}

// NewNormalInitializer returns an unfitted NormalInitializer.
func NewNormalInitializer() *NormalInitializer {
	return &NormalInitializer{}
}

// Fit computes the per-component mean and standard deviation of vectors.
// Fitting to an empty set is a no-op.
func (in *NormalInitializer) Fit(vectors [][]float64) {
	if len(vectors) == 0 {
		return
	}
	size := len(vectors[0])
	in.mean = make([]float64, size)
	in.stddev = make([]float64, size)
	column := make([]float64, len(vectors))
	for i := 0; i < size; i++ {
		for j, vec := range vectors {
			column[j] = vec[i]
		}
		mean, stddev := stat.MeanStdDev(column, nil)
		if len(vectors) == 1 {
			stddev = 0
		}
		in.mean[i] = mean
		in.stddev[i] = stddev
	}
}

func (in *NormalInitializer) Generate(vectorSize int) ([]float64, error) {
	if in.mean == nil {
		return nil, fmt.Errorf("the initializer must be fit before it can generate vectors")
	}
	if vectorSize != len(in.mean) {
		return nil, fmt.Errorf("the initializer was fit on vectors of size %d, not %d",
			len(in.mean), vectorSize)
	}
	vec := make([]float64, vectorSize)
	for i := range vec {
		vec[i] = rand.NormFloat64()*in.stddev[i] + in.mean[i]
	}
	return vec, nil
}
