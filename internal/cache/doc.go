// Package cache defines the content-addressed disk store that backs the image
// pipeline. Originals live under <root>/<group>_cache/<key>.<ext>, where key is
// the hex digest of the source URL and ext is derived from the response's
// declared content type. The store exposes lookup and write primitives with
// safe semantics (temp file + rename) and never deletes entries: the cache is
// append-only and eviction belongs to whoever operates the disk.
package cache
