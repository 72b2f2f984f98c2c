package ui

import "sync/atomic"

type Stats struct {
	TotalChapters atomic.Int64
	TotalPages    atomic.Int64
	TotalBytes    atomic.Int64
}
