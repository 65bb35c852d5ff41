// ==============================================================================
// EXCHANGE GRAPH - internal/forex/graph.go
// ==============================================================================
package forex

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"splitpay/internal/domain"
	"splitpay/pkg/errors"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Resolver stores a directed graph of currency-pair rates and resolves the rate
// between any two connected currencies. It is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	edges   map[domain.Currency]map[domain.Currency]decimal.Decimal
	updated map[domain.Currency]map[domain.Currency]time.Time
	version uint64
}

// NewResolver returns an empty exchange graph.
func NewResolver() *Resolver {
	return &Resolver{
		edges:   make(map[domain.Currency]map[domain.Currency]decimal.Decimal),
		updated: make(map[domain.Currency]map[domain.Currency]time.Time),
	}
}

// AddRate inserts from->to at rate and to->from at 1/rate. Re-adding a pair
// overwrites both directions.
func (r *Resolver) AddRate(from, to domain.Currency, rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return errors.ErrInvalidRate
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.setEdge(from, to, rate, now)
	r.setEdge(to, from, one.Div(rate), now)
	r.version++
	return nil
}

func (r *Resolver) setEdge(from, to domain.Currency, rate decimal.Decimal, at time.Time) {
	if r.edges[from] == nil {
		r.edges[from] = make(map[domain.Currency]decimal.Decimal)
		r.updated[from] = make(map[domain.Currency]time.Time)
	}
	r.edges[from][to] = rate
	r.updated[from][to] = at
}

// Version changes every time the graph is modified.
func (r *Resolver) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Resolve returns the rate that converts one unit of from into to.
//
// The search is best-first over accumulated products: each currency keeps the
// smallest product of edge weights found so far and the queue pops the smallest
// product first. Every currency is settled once, which also bounds the search
// when the graph contains product-decreasing cycles.
func (r *Resolver) Resolve(from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return one, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := map[domain.Currency]decimal.Decimal{from: one}
	settled := make(map[domain.Currency]bool)
	pq := &rateQueue{{currency: from, product: one}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(rateNode)
		if settled[cur.currency] {
			continue
		}
		settled[cur.currency] = true

		if cur.currency == to {
			return cur.product, nil
		}

		for _, next := range r.neighbours(cur.currency) {
			if settled[next] {
				continue
			}
			product := cur.product.Mul(r.edges[cur.currency][next])
			if prev, ok := best[next]; !ok || product.LessThan(prev) {
				best[next] = product
				heap.Push(pq, rateNode{currency: next, product: product})
			}
		}
	}

	return decimal.Zero, errors.ErrRateNotAvailable
}

// neighbours lists outgoing currencies in a stable order.
func (r *Resolver) neighbours(c domain.Currency) []domain.Currency {
	out := make([]domain.Currency, 0, len(r.edges[c]))
	for next := range r.edges[c] {
		out = append(out, next)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Rates returns every stored directed edge, sorted by base then target.
func (r *Resolver) Rates() []domain.ExchangeRate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ExchangeRate
	for from, targets := range r.edges {
		for to, rate := range targets {
			out = append(out, domain.ExchangeRate{
				BaseCurrency:   from,
				TargetCurrency: to,
				Rate:           rate,
				UpdatedAt:      r.updated[from][to],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BaseCurrency != out[j].BaseCurrency {
			return out[i].BaseCurrency < out[j].BaseCurrency
		}
		return out[i].TargetCurrency < out[j].TargetCurrency
	})
	return out
}

type rateNode struct {
	currency domain.Currency
	product  decimal.Decimal
}

// rateQueue is a min-heap on product; ties break on currency code.
type rateQueue []rateNode

func (q rateQueue) Len() int { return len(q) }

func (q rateQueue) Less(i, j int) bool {
	if c := q[i].product.Cmp(q[j].product); c != 0 {
		return c < 0
	}
	return q[i].currency < q[j].currency
}

func (q rateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *rateQueue) Push(x interface{}) { *q = append(*q, x.(rateNode)) }

func (q *rateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
