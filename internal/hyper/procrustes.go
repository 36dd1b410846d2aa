package hyper

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix"
	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Procrustes returns the orthogonal projection R minimizing
// ||src * R - dst||, both matrices being time points by features. With
// scaling R is multiplied by sum(sigma) / ||src||^2.
func Procrustes(src *mat64.Dense, dst *mat64.Dense, scaling bool) (*mat64.Dense, error) {
	srcRows, srcCols := src.Dims()
	dstRows, dstCols := dst.Dims()
	if srcRows != dstRows {
		return nil, errors.Errorf("[Procrustes] src has %d time points, dst has %d", srcRows, dstRows)
	}
	if srcCols == 0 || dstCols == 0 {
		return nil, errors.New("[Procrustes] no features")
	}

	var cross mat64.Dense
	cross.Mul(src.T(), dst)

	var svd mat64.SVD
	if ok := svd.Factorize(&cross, matrix.SVDThin); !ok {
		return nil, errors.New("[Procrustes] SVD did not converge")
	}

	var u, v mat64.Dense
	u.UFromSVD(&svd)
	v.VFromSVD(&svd)

	proj := &mat64.Dense{}
	proj.Mul(&u, v.T())

	if scaling {
		norm := mat64.Norm(src, 2)
		if norm > 0 && !math.IsNaN(norm) {
			proj.Scale(floats.Sum(svd.Values(nil))/(norm*norm), proj)
		}
	}

	return proj, nil
}
