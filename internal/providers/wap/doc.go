// Package wap implements providers.Parser for the mobile ("wap") novel
// layout: chapter index under .chapter, index pagination under .page,
// chapter text under .nr_nr and chapter navigation under .nr_title.
// It does not attempt general-purpose HTML extraction.
package wap
