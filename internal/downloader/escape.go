package downloader

// resolveEscapes starts a walk for each pending escape entry whose preceding
// chapter has completed with a next-chapter link. Entries that cannot be
// resolved yet are requeued in their original order.
func (r *run) resolveEscapes() error {
	pending := r.escapes
	r.escapes = nil

	for _, esc := range pending {
		next, ok := r.store.NextChapterURL(esc.Number - 1)
		if !ok {
			r.escapes = append(r.escapes, esc)
			continue
		}

		r.d.log.Debugf("chapter %d (%q) starts at chapter %d's next link %s\n", esc.Number, esc.Title, esc.Number-1, next)
		if err := r.startWalk(esc.Number, next); err != nil {
			return err
		}
	}

	return nil
}
