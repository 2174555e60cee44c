// Package cache persists generated previews so repeated requests for an
// unchanged source skip the decode entirely.
//
// The cache has two parts: JPEG preview files stored under a cache
// directory, and a SQLite index keyed by source path. An index row records
// the source's size and modification time; a lookup only hits when both
// still match, so edits to the source invalidate its preview automatically.
package cache
