package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Mohsinsiddi/milknet/internal/log"
)

// probeTimeout bounds a single endpoint probe.
const probeTimeout = 5 * time.Second

// cacheTTL is how long a fastest-endpoint winner is reused without probing.
const cacheTTL = 5 * time.Minute

// ProbeFunc measures one endpoint.
type ProbeFunc func(ctx context.Context, url string) Endpoint

// Probe dials url and asks it for the head block number.
func Probe(ctx context.Context, url string) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ep := Endpoint{URL: url}
	start := time.Now()
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer client.Close()

	ep.BlockNumber, ep.Err = client.BlockNumber(ctx)
	ep.Latency = time.Since(start)
	return ep
}

// ProbeAll probes every url in parallel. Results keep the input order.
func ProbeAll(ctx context.Context, urls []string, probe ProbeFunc) []Endpoint {
	results := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			results[idx] = probe(ctx, u)
		}(i, url)
	}
	wg.Wait()
	return results
}

// Selector picks endpoints for one chain, remembering the fastest winner
// for a while so repeated calls do not re-probe.
type Selector struct {
	picker *Picker
	probe  ProbeFunc

	mu          sync.Mutex
	cachedURL   string
	cacheExpiry time.Time
}

// NewSelector creates a selector. A nil probe uses Probe.
func NewSelector(algo Algorithm, probe ProbeFunc) *Selector {
	if probe == nil {
		probe = Probe
	}
	return &Selector{picker: NewPicker(algo), probe: probe}
}

// Select returns the URL to use out of urls.
func (s *Selector) Select(ctx context.Context, urls []string) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	cacheable := s.picker.Algorithm() == AlgorithmFastest
	if cacheable {
		s.mu.Lock()
		if s.cachedURL != "" && time.Now().Before(s.cacheExpiry) && contains(urls, s.cachedURL) {
			url := s.cachedURL
			s.mu.Unlock()
			return url, nil
		}
		s.mu.Unlock()
	}

	endpoints := ProbeAll(ctx, urls, s.probe)
	for _, e := range endpoints {
		if e.Err != nil {
			log.L(ctx).Debugf("rpc probe %s failed: %s", e.URL, e.Err)
		} else {
			log.L(ctx).Debugf("rpc probe %s: block %d in %s", e.URL, e.BlockNumber, e.Latency)
		}
	}
	winner, err := s.picker.Pick(endpoints)
	if err != nil {
		return "", err
	}

	if cacheable {
		s.mu.Lock()
		s.cachedURL = winner.URL
		s.cacheExpiry = time.Now().Add(cacheTTL)
		s.mu.Unlock()
	}
	return winner.URL, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
