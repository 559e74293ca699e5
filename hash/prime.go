package hash

import "github.com/jbarham/primegen"

// PrimeAtLeast returns the smallest prime greater than or equal to n.
// Prime sized tables spread the multiply shift reduction more evenly.
func PrimeAtLeast(n uint64) uint64 {
	pg := primegen.New()
	pg.SkipTo(n)
	for {
		p := pg.Next()
		if p >= n {
			return p
		}
	}
}
