package engine

import (
	"context"
	"math"
)

// earlyStopRatio ends a quality search once a candidate is within 1% below target
const earlyStopRatio = 0.99

// probe encodes at quality and returns the output and its size
type probe func(ctx context.Context, quality int) ([]byte, error)

// candidate is the best satisfying encode seen by a search
type candidate struct {
	data    []byte
	quality int
}

// searchQuality binary searches [lo, hi] for the largest quality whose output
// fits target. It makes at most maxIter probes and is deterministic for a
// deterministic probe. ok is false when no probed quality fit.
func searchQuality(ctx context.Context, lo, hi, maxIter int, target int64, encode probe, onAttempt func(quality int, size int64, fits bool)) (best candidate, ok bool, err error) {
	floor := int64(math.Floor(float64(target) * earlyStopRatio))

	for i := 0; i < maxIter && lo <= hi; i++ {
		if err := ctx.Err(); err != nil {
			return best, ok, err
		}

		mid := lo + (hi-lo)/2
		data, err := encode(ctx, mid)
		if err != nil {
			return best, ok, err
		}

		size := int64(len(data))
		fits := size <= target
		onAttempt(mid, size, fits)

		if !fits {
			hi = mid - 1
			continue
		}

		best, ok = candidate{data: data, quality: mid}, true
		if size >= floor {
			break
		}
		lo = mid + 1
	}
	return best, ok, nil
}

// fitQuality probes minQ first. If even that is too large the caller must
// shrink the input; otherwise the remaining range is binary searched and the
// minQ output serves as the fallback candidate.
func fitQuality(ctx context.Context, minQ, maxQ, maxIter int, target int64, encode probe, onAttempt func(quality int, size int64, fits bool)) (candidate, bool, error) {
	data, err := encode(ctx, minQ)
	if err != nil {
		return candidate{}, false, err
	}
	size := int64(len(data))
	fits := size <= target
	onAttempt(minQ, size, fits)
	if !fits {
		return candidate{}, false, nil
	}

	best := candidate{data: data, quality: minQ}
	if size >= int64(math.Floor(float64(target)*earlyStopRatio)) {
		return best, true, nil
	}

	found, ok, err := searchQuality(ctx, minQ+1, maxQ, maxIter, target, encode, onAttempt)
	if err != nil {
		return candidate{}, false, err
	}
	if ok {
		best = found
	}
	return best, true, nil
}
