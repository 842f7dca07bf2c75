// Package imagecache downloads remote images at most once per distinct URL
// and serves them from the content-addressed store in package cache.
//
// Fetch never returns an error: malformed URLs, transport failures and
// content types outside the image allow-list are logged and reported as a
// miss, so callers simply keep the original remote URL. When a display name
// is supplied, a human-readable symlink is maintained next to the store and
// its URL is preferred over the content-addressed one.
package imagecache
