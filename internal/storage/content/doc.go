// Package content implements the page operations exposed over HTTP.
//
// Two shapes share the storage layer:
//   - DocumentService stores the body as a single artifact under one root.
//   - PageService stores the markdown source under the edit root and its HTML
//     rendering under the pages root, treating the pair as one page.
//
// Neither service holds mutable state; the filesystem is the only source of
// truth.
package content
