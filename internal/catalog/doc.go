// Package catalog persists playable characters in SQLite and validates them
// before they are written.
//
// Characters implement the image and thumbnail entity interfaces consumed by
// packages imagecache and thumbnail, so list handlers can hand catalog rows
// straight to those layers without adapter types.
package catalog
