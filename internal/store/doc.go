// Package store persists original image files on disk.
//
// DirStore keeps every image as a flat file under a single root directory,
// keyed by a sanitized identifier. Writes go through a temp file and rename
// so readers never observe a partial file. Reads retry transient stale
// file handle errors, which show up when the root lives on NFS.
package store
