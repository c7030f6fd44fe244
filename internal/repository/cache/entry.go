package cache

import (
	"image"
	"sync/atomic"
	"time"

	"github.com/jaennil/guide_helper/backend/render/internal/tile"
)

type Status int32

const (
	StatusPending Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is one tile tracked by the cache. Content, CreatedAt and Err are
// written before the status is published, so a reader that observes Ready
// or Failed also observes them.
type Entry struct {
	Index tile.Index

	status    atomic.Int32
	content   image.Image
	createdAt time.Time
	err       error
}

func NewEntry(idx tile.Index) *Entry {
	return &Entry{Index: idx}
}

func (e *Entry) Status() Status {
	return Status(e.status.Load())
}

// Content returns the decoded tile, or nil unless the entry is Ready.
func (e *Entry) Content() image.Image {
	if e.Status() != StatusReady {
		return nil
	}
	return e.content
}

// CreatedAt is the time the content became available.
func (e *Entry) CreatedAt() time.Time {
	if e.Status() != StatusReady {
		return time.Time{}
	}
	return e.createdAt
}

func (e *Entry) Err() error {
	if e.Status() != StatusFailed {
		return nil
	}
	return e.err
}

// MarkReady stores content and publishes Ready. Only a Pending entry moves.
func (e *Entry) MarkReady(content image.Image, now time.Time) bool {
	if e.Status() != StatusPending {
		return false
	}
	e.content = content
	e.createdAt = now
	return e.status.CompareAndSwap(int32(StatusPending), int32(StatusReady))
}

// MarkFailed records err and publishes Failed. Only a Pending entry moves.
func (e *Entry) MarkFailed(err error) bool {
	if e.Status() != StatusPending {
		return false
	}
	e.err = err
	return e.status.CompareAndSwap(int32(StatusPending), int32(StatusFailed))
}
