package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/sigtax/sigtax/kmers"
	"github.com/ZanzyTHEbar/sigtax/sigtax/metric"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs"
	"github.com/ZanzyTHEbar/sigtax/sigtax/sigs/sigfile"
)

// elemType runs the stages of a command that depend on a file's stored element type.
type elemType interface {
	query(ctx context.Context, e *env, o queryOptions, queryPath string) error
	dist(ctx context.Context, e *env, o distOptions, queryPath, refPath string) error
	// widen opens path and presents its signatures as uint64 codes. release must be called
	// once the view is no longer used.
	widen(path string) (view sigs.Signatures[uint64], ids []string, release func() error, err error)
}

type elem[T sigs.Code] struct{}

func (elem[T]) query(ctx context.Context, e *env, o queryOptions, queryPath string) error {
	return queryWith[T](ctx, e, o, queryPath)
}

func (elem[T]) dist(ctx context.Context, e *env, o distOptions, queryPath, refPath string) error {
	return distWith[T](ctx, e, o, queryPath, refPath)
}

func (elem[T]) widen(path string) (sigs.Signatures[uint64], []string, func() error, error) {
	f, err := sigfile.Open[T](path)
	if err != nil {
		return nil, nil, nil, err
	}
	return widened[T]{f}, f.IDs(), f.Close, nil
}

// elemOf returns the element type stored with width w.
func elemOf(w sigs.Width) (elemType, error) {
	switch w {
	case sigs.U1:
		return elem[uint8]{}, nil
	case sigs.U2:
		return elem[uint16]{}, nil
	case sigs.U4:
		return elem[uint32]{}, nil
	case sigs.U8:
		return elem[uint64]{}, nil
	case sigs.I2:
		return elem[int16]{}, nil
	case sigs.I4:
		return elem[int32]{}, nil
	case sigs.I8:
		return elem[int64]{}, nil
	}
	return nil, fmt.Errorf("%w: %s", sigs.ErrUnknownWidth, w)
}

// elemAt reads the header of the signature file at path and returns its element type.
func elemAt(path string) (elemType, *sigfile.Header, error) {
	h, err := sigfile.ReadHeader(path)
	if err != nil {
		return nil, nil, err
	}
	et, err := elemOf(h.Width)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return et, h, nil
}

// loadAs reads the signature file at path and converts it to element type T, whatever width
// it was stored with. The file must hold signatures over spec.
func loadAs[T sigs.Code](path string, spec kmers.KmerSpec) (*sigs.SignatureArray[T], []string, error) {
	et, h, err := elemAt(path)
	if err != nil {
		return nil, nil, err
	}
	if h.Spec != spec {
		return nil, nil, fmt.Errorf("%s: %w: %s vs %s", path, metric.ErrSpecMismatch, h.Spec, spec)
	}

	src, ids, closeFile, err := et.widen(path)
	if err != nil {
		return nil, nil, err
	}
	defer closeFile()

	arr, err := sigs.Convert[T, uint64](src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, ids, nil
}

// widened presents validated signatures of any width as uint64 codes.
type widened[F sigs.Code] struct {
	src sigs.Signatures[F]
}

func (w widened[F]) Len() int                 { return w.src.Len() }
func (w widened[F]) KmerSpec() kmers.KmerSpec { return w.src.KmerSpec() }

func (w widened[F]) At(i int) []uint64 {
	sig := w.src.At(i)
	out := make([]uint64, len(sig))
	for j, v := range sig {
		out[j] = uint64(v)
	}
	return out
}

func (w widened[F]) Slice(start, end int) sigs.Signatures[uint64] {
	return widened[F]{w.src.Slice(start, end)}
}

// labels returns ids, or positional labels when the file stored none.
func labels(ids []string, n int) []string {
	if ids != nil {
		return ids
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("#%d", i)
	}
	return out
}
