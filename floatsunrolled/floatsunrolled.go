// floatsunrolled is inspired by the SIMD blog post
// https://github.com/camdencheek/simd_blog/blob/main/main.go
package floatsunrolled

import (
	"errors"
	"math"
)

const UnrollBatch = 4

var (
	ErrSliceLengthMismatch       = errors.New("slices must have equal lengths")
	ErrOutputSliceLengthMismatch = errors.New("output slice length not the same as input")
)

func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(ErrSliceLengthMismatch)
	}

	var sum float64
	i := 0
	for ; i+UnrollBatch <= len(a); i += UnrollBatch {
		aTmp := a[i : i+UnrollBatch : i+UnrollBatch]
		bTmp := b[i : i+UnrollBatch : i+UnrollBatch]
		s0 := aTmp[0] * bTmp[0]
		s1 := aTmp[1] * bTmp[1]
		s2 := aTmp[2] * bTmp[2]
		s3 := aTmp[3] * bTmp[3]
		sum += s0 + s1 + s2 + s3
	}
	for ; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func Sum(s []float64) float64 {
	var sum float64
	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		sum += sTmp[0] + sTmp[1] + sTmp[2] + sTmp[3]
	}
	for ; i < len(s); i++ {
		sum += s[i]
	}
	return sum
}

func Add(dst, s []float64) []float64 {
	if len(dst) != len(s) {
		panic(ErrSliceLengthMismatch)
	}

	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] += sTmp[0]
		dstTmp[1] += sTmp[1]
		dstTmp[2] += sTmp[2]
		dstTmp[3] += sTmp[3]
	}
	for ; i < len(s); i++ {
		dst[i] += s[i]
	}
	return dst
}

func SubTo(dst, s, t []float64) []float64 {
	if len(s) != len(t) {
		panic(ErrSliceLengthMismatch)
	}
	if dst == nil {
		dst = make([]float64, len(s))
	}
	if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		tTmp := t[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = sTmp[0] - tTmp[0]
		dstTmp[1] = sTmp[1] - tTmp[1]
		dstTmp[2] = sTmp[2] - tTmp[2]
		dstTmp[3] = sTmp[3] - tTmp[3]
	}
	for ; i < len(s); i++ {
		dst[i] = s[i] - t[i]
	}
	return dst
}

func MulTo(dst, s, t []float64) []float64 {
	if len(s) != len(t) {
		panic(ErrSliceLengthMismatch)
	}
	if dst == nil {
		dst = make([]float64, len(s))
	}
	if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		tTmp := t[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = sTmp[0] * tTmp[0]
		dstTmp[1] = sTmp[1] * tTmp[1]
		dstTmp[2] = sTmp[2] * tTmp[2]
		dstTmp[3] = sTmp[3] * tTmp[3]
	}
	for ; i < len(s); i++ {
		dst[i] = s[i] * t[i]
	}
	return dst
}

func ScaleTo(dst []float64, c float64, s []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(s))
	}
	if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = c * sTmp[0]
		dstTmp[1] = c * sTmp[1]
		dstTmp[2] = c * sTmp[2]
		dstTmp[3] = c * sTmp[3]
	}
	for ; i < len(s); i++ {
		dst[i] = c * s[i]
	}
	return dst
}

func ExpTo(dst, s []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(s))
	}
	if len(dst) != len(s) {
		panic(ErrOutputSliceLengthMismatch)
	}

	i := 0
	for ; i+UnrollBatch <= len(s); i += UnrollBatch {
		dstTmp := dst[i : i+UnrollBatch : i+UnrollBatch]
		sTmp := s[i : i+UnrollBatch : i+UnrollBatch]
		dstTmp[0] = math.Exp(sTmp[0])
		dstTmp[1] = math.Exp(sTmp[1])
		dstTmp[2] = math.Exp(sTmp[2])
		dstTmp[3] = math.Exp(sTmp[3])
	}
	for ; i < len(s); i++ {
		dst[i] = math.Exp(s[i])
	}
	return dst
}
