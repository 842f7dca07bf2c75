// Package pathmap translates between public web paths and the filesystem
// paths that back them, and owns the small set of filesystem primitives the
// image pipeline relies on: slug generation for human-readable names,
// idempotent directory creation and atomic symlink replacement.
//
// Every name produced by Slugify is restricted to [a-z0-9_], so slugs can be
// used as path segments without any further escaping.
package pathmap
