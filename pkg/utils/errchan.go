// Package utils carries small helpers shared across the service:
// pointer construction, gRPC listener plumbing and error channel
// aggregation.
package utils //nolint:revive // var-naming: utils is an established name for this shared package

import "sync"

// MergeErrorChans fans several error channels into one. Each input gets
// a forwarding goroutine; the output closes once every input closed.
func MergeErrorChans(channels ...chan error) chan error {
	out := make(chan error)

	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func() {
			defer wg.Done()
			for err := range ch {
				out <- err
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
