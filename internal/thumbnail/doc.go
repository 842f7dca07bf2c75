// Package thumbnail derives deterministic job identifiers for source images,
// hands missing thumbnails to an external worker over HTTP and reconciles
// client-side polling against the files that worker writes.
//
// The worker is optional. Its reachability is probed once per process with a
// short health check; when it is down, every operation degrades to returning
// the original image URL and page rendering is never blocked.
//
// Disk layout under the image root:
//
//	thumbs_cache/<jobId><ext>   written by the worker
//	thumbs/<stem><ext>          symlink maintained here
package thumbnail
