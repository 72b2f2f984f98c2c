package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/brogergvhs/noveld/internal/chapters"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/ui"

	"golang.org/x/sync/errgroup"
)

// Progress receives chapter completion counts. *ui.ProgressHandle
// implements it.
type Progress interface {
	SetTotal(total int)
	Update(done, total int, bytes int64)
	MarkDone()
	Abort()
}

type noopProgress struct{}

func (noopProgress) SetTotal(int)           {}
func (noopProgress) Update(int, int, int64) {}
func (noopProgress) MarkDone()              {}
func (noopProgress) Abort()                 {}

type Options struct {
	Parser    providers.Parser
	Fetcher   Fetcher
	Sanitizer *chapters.Sanitizer
	Workers   int
	Log       *ui.Logger
	Stats     *ui.Stats
	Progress  Progress
}

type Downloader struct {
	parser    providers.Parser
	fetcher   Fetcher
	sanitizer *chapters.Sanitizer
	workers   int
	log       *ui.Logger
	stats     *ui.Stats
	progress  Progress
}

func New(opts Options) (*Downloader, error) {
	if opts.Parser == nil || opts.Fetcher == nil {
		return nil, errors.New("downloader: parser and fetcher are required")
	}

	d := &Downloader{
		parser:    opts.Parser,
		fetcher:   opts.Fetcher,
		sanitizer: opts.Sanitizer,
		workers:   max(1, opts.Workers),
		log:       opts.Log,
		stats:     opts.Stats,
		progress:  opts.Progress,
	}

	if d.sanitizer == nil {
		s, err := chapters.NewSanitizer(nil)
		if err != nil {
			return nil, err
		}
		d.sanitizer = s
	}
	if d.log == nil {
		d.log = ui.NewLoggerTo(io.Discard, false)
	}
	if d.stats == nil {
		d.stats = &ui.Stats{}
	}
	if d.progress == nil {
		d.progress = noopProgress{}
	}

	return d, nil
}

type Result struct {
	Document string
	Chapters int
	Pages    int
	// Warnings are problems that did not prevent completion, such as index
	// entries without a chapter number.
	Warnings []error
}

// Run walks the chapter index at indexURL, downloads every chapter and
// returns the merged document. It returns a *RunError (ErrIncomplete) when
// chapters are still missing once nothing is left to fetch, and a
// *DefectError when an internal invariant breaks.
func (d *Downloader) Run(ctx context.Context, indexURL string) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	r := d.newRun(gctx, g, indexURL)

	g.Go(func() error {
		defer cancel()
		return r.loop(gctx)
	})

	if err := g.Wait(); err != nil {
		d.progress.Abort()

		var defect *DefectError
		if errors.As(err, &defect) {
			d.log.Debugf("%s\n", defect.Stack())
		}

		return nil, err
	}

	d.progress.MarkDone()

	res := &Result{
		Document: r.document,
		Chapters: r.store.Completed(),
		Warnings: r.warnings,
	}
	for _, n := range r.store.Numbers() {
		rec, _ := r.store.Get(n)
		res.Pages += len(rec.Pages)
	}

	return res, nil
}

// run is the state of one Run. Only the coordinator goroutine (loop) reads
// or writes it, so handling one fetch result is atomic with respect to the
// others.
type run struct {
	d        *Downloader
	pool     *fetchPool
	indexURL string

	store    *chapters.Store
	toc      *tocWalk
	tocDone  bool
	expected int
	seen     map[int]bool
	walks    map[int]*contentWalk
	escapes  []chapters.EscapeEntry
	parked   map[int]string
	failed   map[int]error
	inflight int

	errs     []error
	warnings []error

	merged   bool
	document string
}

func (d *Downloader) newRun(ctx context.Context, g *errgroup.Group, indexURL string) *run {
	return &run{
		d:        d,
		pool:     newFetchPool(ctx, g, d.fetcher, d.workers),
		indexURL: indexURL,
		store:    chapters.NewStore(),
		toc:      newTOCWalk(indexURL),
		seen:     make(map[int]bool),
		walks:    make(map[int]*contentWalk),
		parked:   make(map[int]string),
		failed:   make(map[int]error),
	}
}

func (r *run) loop(ctx context.Context) error {
	r.issue(task{kind: taskIndex, url: r.indexURL})

	for r.inflight > 0 && !r.merged {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-r.pool.results:
			r.inflight--
			if err := r.handle(res); err != nil {
				return err
			}
		}
	}

	if r.merged {
		return nil
	}

	return r.settleIncomplete()
}

func (r *run) issue(t task) {
	r.inflight++
	r.pool.submit(t)
}

func (r *run) handle(res result) error {
	if IsDefect(res.err) || errors.Is(res.err, context.Canceled) {
		return res.err
	}

	switch res.task.kind {
	case taskIndex:
		return r.handleIndex(res)
	case taskContent:
		return r.handleContent(res)
	default:
		return newDefect("unknown task kind %d", res.task.kind)
	}
}

func (r *run) handleIndex(res result) error {
	if res.err != nil {
		r.addError(fmt.Errorf("chapter index: %w", res.err))
		return nil
	}

	page, err := r.d.parser.ParseIndex(res.task.url, res.html)
	if err != nil {
		r.addError(fmt.Errorf("chapter index: %w", err))
		return nil
	}

	r.d.log.Debugf("index page %d (%s): %d entries\n", r.toc.pages+1, res.task.url, len(page.Entries))
	for _, p := range page.Problems {
		r.addWarning(p)
	}

	for _, e := range page.Entries {
		if err := r.discover(e); err != nil {
			return err
		}
	}

	more, err := r.toc.step(page)
	if err != nil {
		r.addError(fmt.Errorf("chapter index: %w", err))
		return nil
	}
	if more {
		r.issue(task{kind: taskIndex, url: r.toc.next})
		return nil
	}

	return r.finishIndex()
}

func (r *run) discover(e providers.IndexEntry) error {
	if r.seen[e.Number] {
		r.addWarning(fmt.Errorf("duplicate index entry %d (%q) ignored", e.Number, e.Title))
		return nil
	}
	r.seen[e.Number] = true

	if e.Escaped() {
		r.d.log.Debugf("chapter %d (%q) has no link, deferring\n", e.Number, e.Title)
		r.escapes = append(r.escapes, chapters.EscapeEntry{Number: e.Number, Title: e.Title})
		return nil
	}

	return r.startWalk(e.Number, e.URL)
}

func (r *run) startWalk(number int, url string) error {
	if _, ok := r.walks[number]; ok {
		return newDefect("chapter %d walked twice", number)
	}

	r.walks[number] = newContentWalk(number, url)
	r.issue(task{kind: taskContent, url: url, number: number})

	return nil
}

// finishIndex fixes the expected chapter count once index pagination ends.
func (r *run) finishIndex() error {
	r.tocDone = true
	r.expected = r.toc.highest
	r.d.progress.SetTotal(r.expected)
	r.d.log.Infof("Chapter index: %d page(s), %d chapters\n", r.toc.pages, r.expected)

	if r.expected == 0 {
		r.addError(&providers.ParseError{URL: r.indexURL, What: "chapter index lists no chapters"})
		return nil
	}

	for n := 1; n <= r.expected; n++ {
		if !r.seen[n] {
			r.addError(&ChapterError{Number: n, Err: &providers.ParseError{URL: r.indexURL, What: "missing from chapter index"}})
		}
	}

	for _, n := range sortedKeys(r.parked) {
		title := r.parked[n]
		delete(r.parked, n)
		if err := r.endChapter(n, title); err != nil {
			return err
		}
	}

	return r.checkCompletion()
}

func (r *run) handleContent(res result) error {
	n := res.task.number
	w, ok := r.walks[n]
	if !ok || w.url != res.task.url {
		return newDefect("unexpected page %s for chapter %d", res.task.url, n)
	}

	if res.err != nil {
		r.failChapter(n, res.err)
		return r.checkCompletion()
	}

	page, err := r.d.parser.ParseContent(res.task.url, res.html)
	if err != nil {
		r.failChapter(n, err)
		return r.checkCompletion()
	}

	text := strings.Trim(r.d.sanitizer.Sanitize(page.Text), "\n")
	if err := r.store.AppendPage(n, text); err != nil {
		return wrapDefect(err)
	}
	r.d.stats.TotalPages.Add(1)

	title := page.Title
	if title == "" {
		title = chapters.DefaultTitle(n)
	}

	outcome, err := w.step(page)
	if err != nil {
		r.failChapter(n, err)
		return r.checkCompletion()
	}

	switch outcome {
	case walkMore:
		r.issue(task{kind: taskContent, url: w.url, number: n})
		return nil
	case walkChapterDone:
		return r.complete(n, title, page.NextChapterURL)
	default:
		return r.endChapter(n, title)
	}
}

// endChapter handles a page with neither a next-page nor a next-chapter
// link. That is the end of the book only for the highest chapter of the
// index, so the decision waits until the index walk has finished.
func (r *run) endChapter(n int, title string) error {
	if !r.tocDone {
		r.parked[n] = title
		return nil
	}

	if n == r.expected {
		return r.complete(n, title, "")
	}

	r.failChapter(n, &providers.ParseError{URL: r.walks[n].url, What: "page has no next-page or next-chapter link"})
	return r.checkCompletion()
}

func (r *run) complete(n int, title, nextURL string) error {
	if err := r.store.Complete(n, title, nextURL); err != nil {
		return wrapDefect(err)
	}

	rec, _ := r.store.Get(n)
	r.d.stats.TotalChapters.Add(1)
	r.d.log.Debugf("%s: %d page(s) | %s\n", rec.Title, len(rec.Pages), rec.Summary(40))
	r.d.progress.Update(r.store.Completed(), r.expected, r.d.stats.TotalBytes.Load())

	return r.checkCompletion()
}

// checkCompletion runs after every completion, failure and index end. It
// resolves escape entries once every chapter started so far has settled,
// and merges once the expected count is reached. Both steps are guarded, so
// calling it repeatedly is harmless.
func (r *run) checkCompletion() error {
	if len(r.escapes) > 0 && r.settled() == r.store.Len() {
		if err := r.resolveEscapes(); err != nil {
			return err
		}
	}

	if r.merged || !r.tocDone || r.expected == 0 || r.store.Completed() != r.expected {
		return nil
	}

	doc, err := chapters.Merge(r.store, r.expected)
	if err != nil {
		return wrapDefect(err)
	}

	r.merged = true
	r.document = doc

	return nil
}

// settled counts stored chapters that will not receive more pages.
func (r *run) settled() int {
	n := r.store.Completed()
	for num := range r.failed {
		if r.store.Has(num) {
			n++
		}
	}

	return n
}

func (r *run) failChapter(n int, err error) {
	if _, ok := r.failed[n]; ok {
		return
	}

	r.failed[n] = err
	r.addError(&ChapterError{Number: n, Err: err})
}

func (r *run) addError(err error) {
	r.d.log.Errorf("%v\n", err)
	r.errs = append(r.errs, err)
}

func (r *run) addWarning(err error) {
	r.d.log.Warnf("%v\n", err)
	r.warnings = append(r.warnings, err)
}

func (r *run) settleIncomplete() error {
	for _, esc := range r.escapes {
		r.addError(&ChapterError{
			Number: esc.Number,
			Err:    fmt.Errorf("no link for %q and chapter %d left no next-chapter link", esc.Title, esc.Number-1),
		})
	}

	for _, n := range sortedKeys(r.parked) {
		r.addError(&ChapterError{Number: n, Err: errors.New("chapter ended without a next-chapter link before the index was complete")})
	}

	rerr := &RunError{Errors: r.errs}
	if r.tocDone {
		rerr.Expected = r.expected
		rerr.Missing = r.store.Missing(r.expected)
	}

	return rerr
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)

	return out
}
