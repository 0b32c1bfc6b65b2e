// Package aql implements the acceptance-sampling side of the weighing
// inspection: the Ac/Re plan lookup and the two-tier accept/reject
// decision over a weighed sample.
package aql

import (
	"github.com/ansel1/merry"
	"github.com/fpawel/netmass/internal/pkg/must"
)

// FallbackLevel is the quality level every bucket must stock: lookups
// of a level the bucket does not list fail over to it.
const FallbackLevel = "1.0%"

// AcRe is the accept/reject pair of a plan entry: a sample with at most
// Ac defective units is accepted, with at least Re rejected.
type AcRe struct {
	Ac int `json:"ac" yaml:"ac"`
	Re int `json:"re" yaml:"re"`
}

func (x AcRe) Validate() error {
	if x.Ac < 0 {
		return merry.Errorf("ac=%d: must not be negative", x.Ac)
	}
	if x.Re <= x.Ac {
		return merry.Errorf("ac=%d re=%d: re must be greater than ac", x.Ac, x.Re)
	}
	return nil
}

// Bucket is one sample-size row of the plan.
type Bucket struct {
	Size   int             `json:"size" yaml:"size"`
	Levels map[string]AcRe `json:"levels" yaml:"levels"`
}

// AcReFor returns the bucket's pair for the level, falling back to
// FallbackLevel. A bucket stocking neither is a configuration defect.
func (b Bucket) AcReFor(level string) (AcRe, error) {
	if x, f := b.Levels[level]; f {
		return x, nil
	}
	if x, f := b.Levels[FallbackLevel]; f {
		return x, nil
	}
	return AcRe{}, merry.Errorf("bucket %d stocks neither level %q nor %q", b.Size, level, FallbackLevel)
}

// Plan maps sample-size buckets to Ac/Re pairs per quality level.
// Buckets are declared in ascending size order. A Plan is read-only
// after configuration and safe to share.
type Plan []Bucket

func (p Plan) Validate() error {
	if len(p) == 0 {
		return merry.New("empty sampling plan")
	}
	for i, b := range p {
		if b.Size < 1 {
			return merry.Errorf("bucket %d: size must be positive", b.Size)
		}
		if i > 0 && b.Size <= p[i-1].Size {
			return merry.Errorf("bucket %d after %d: sizes must ascend", b.Size, p[i-1].Size)
		}
		if _, f := b.Levels[FallbackLevel]; !f {
			return merry.Errorf("bucket %d: fallback level %q is not stocked", b.Size, FallbackLevel)
		}
		for level, x := range b.Levels {
			if err := x.Validate(); err != nil {
				return merry.Prependf(err, "bucket %d, level %q", b.Size, level)
			}
		}
	}
	return nil
}

// Nearest returns the bucket whose size is closest to n by absolute
// distance. Ties resolve to the first bucket in declared order.
func (p Plan) Nearest(n int) (Bucket, error) {
	if len(p) == 0 {
		return Bucket{}, merry.New("empty sampling plan")
	}
	best := p[0]
	for _, b := range p[1:] {
		if intAbs(b.Size-n) < intAbs(best.Size-n) {
			best = b
		}
	}
	return best, nil
}

// Lookup finds the Ac/Re pair for the nominal sample size and quality
// level: the nearest bucket, then the requested level with the
// FallbackLevel failover.
func (p Plan) Lookup(n int, level string) (AcRe, error) {
	b, err := p.Nearest(n)
	if err != nil {
		return AcRe{}, err
	}
	return b.AcReFor(level)
}

func intAbs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DefaultPlan is the stock inspection table: sample-size buckets
// 2..50, quality levels 0.65%..6.5%. The smallest buckets do not stock
// the lowest levels.
var DefaultPlan = Plan{
	{Size: 2, Levels: map[string]AcRe{
		"1.0%": {0, 1}, "1.5%": {0, 1}, "2.5%": {0, 1}, "4.0%": {0, 1}, "6.5%": {0, 1},
	}},
	{Size: 3, Levels: map[string]AcRe{
		"1.0%": {0, 1}, "1.5%": {0, 1}, "2.5%": {0, 1}, "4.0%": {0, 1}, "6.5%": {0, 1},
	}},
	{Size: 5, Levels: map[string]AcRe{
		"1.0%": {0, 1}, "1.5%": {0, 1}, "2.5%": {0, 1}, "4.0%": {0, 1}, "6.5%": {1, 2},
	}},
	{Size: 8, Levels: map[string]AcRe{
		"0.65%": {0, 1}, "1.0%": {0, 1}, "1.5%": {0, 1}, "2.5%": {0, 1}, "4.0%": {1, 2}, "6.5%": {1, 2},
	}},
	{Size: 13, Levels: map[string]AcRe{
		"0.65%": {0, 1}, "1.0%": {0, 1}, "1.5%": {0, 1}, "2.5%": {1, 2}, "4.0%": {1, 2}, "6.5%": {2, 3},
	}},
	{Size: 20, Levels: map[string]AcRe{
		"0.65%": {0, 1}, "1.0%": {0, 1}, "1.5%": {1, 2}, "2.5%": {1, 2}, "4.0%": {2, 3}, "6.5%": {3, 4},
	}},
	{Size: 32, Levels: map[string]AcRe{
		"0.65%": {0, 1}, "1.0%": {1, 2}, "1.5%": {1, 2}, "2.5%": {2, 3}, "4.0%": {3, 4}, "6.5%": {5, 6},
	}},
	{Size: 50, Levels: map[string]AcRe{
		"0.65%": {1, 2}, "1.0%": {1, 2}, "1.5%": {2, 3}, "2.5%": {3, 4}, "4.0%": {5, 6}, "6.5%": {7, 8},
	}},
}

func init() {
	must.PanicIf(DefaultPlan.Validate())
}
