package corpus

import (
	"math"
	"math/rand/v2"

	"github.com/IshaanNene/diwancrawl/internal/types"
)

// Split shuffles records with a generator seeded by seed and cuts off the
// validation share. The validation set holds ceil(n*ratio) records. The
// same seed and input always give the same split. records is not modified.
func Split(records []types.CorpusRecord, ratio float64, seed uint64) (train, val []types.CorpusRecord) {
	n := len(records)
	if n == 0 {
		return nil, nil
	}

	shuffled := make([]types.CorpusRecord, n)
	copy(shuffled, records)

	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nVal := int(math.Ceil(float64(n) * ratio))
	if nVal > n {
		nVal = n
	}
	return shuffled[nVal:], shuffled[:nVal]
}
