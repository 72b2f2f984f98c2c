package downloader

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

type taskKind int

const (
	taskIndex taskKind = iota
	taskContent
)

type task struct {
	kind   taskKind
	url    string
	number int
}

type result struct {
	task task
	html string
	err  error
}

// fetchPool runs fetches on their own goroutines, at most `workers` at a
// time, and hands results back on a single channel. Workers never touch run
// state.
type fetchPool struct {
	ctx     context.Context
	g       *errgroup.Group
	sem     *semaphore.Weighted
	fetcher Fetcher
	results chan result
}

func newFetchPool(ctx context.Context, g *errgroup.Group, f Fetcher, workers int) *fetchPool {
	return &fetchPool{
		ctx:     ctx,
		g:       g,
		sem:     semaphore.NewWeighted(int64(max(1, workers))),
		fetcher: f,
		results: make(chan result),
	}
}

func (p *fetchPool) submit(t task) {
	p.g.Go(func() error {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return nil
		}
		defer p.sem.Release(1)

		res := result{task: t}
		res.html, res.err = p.fetch(t.url)

		select {
		case p.results <- res:
		case <-p.ctx.Done():
		}

		return nil
	})
}

func (p *fetchPool) fetch(url string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newDefect("fetch %s panicked: %v", url, r)
		}
	}()

	return p.fetcher.Fetch(p.ctx, url)
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		nr, er := src.Read(buf)

		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])

			if nw > 0 {
				total += int64(nw)
				if progress != nil {
					progress(total)
				}
			}

			if ew != nil {
				return total, ew
			}

			if nr != nw {
				return total, io.ErrShortWrite
			}
		}

		if er != nil {
			if er == io.EOF {
				break
			}
			return total, er
		}
	}

	return total, nil
}
