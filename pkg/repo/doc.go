// Package repo implements the repository protocol client.
//
// A repository is addressed by a location: a URL, or an alias registered in
// an [alias.Registry] that expands to an ordered list of candidate URLs.
// Fetches try candidates in order and take the first that succeeds; results
// are cached under the requested location, so lookups through an alias keep
// hitting the cache even when the alias re-targets between windows.
//
// # Protocol
//
// A GET against a repository location returns a JSON document of package
// nodes. Each node carries a unique name, an embedded descriptor, and the
// package's executable content. GET <location>?assets&latest returns the
// repository's asset manifest as a JSON array of {fileName, fileHash, v}
// entries; only the highest-v entry per file is authoritative. Asset bytes
// are served under <location>/assets/<name>, and staged assets are uploaded
// as a single multipart POST of "file" fields against the location itself.
//
// # Caching
//
// Documents and manifests share a staleness window ([DefaultTTL]); an entry
// older than the window is refetched. Concurrent fetches of the same
// location coalesce onto one network call. Asset bytes are optionally
// cached on disk keyed by content hash, which never goes stale.
package repo
