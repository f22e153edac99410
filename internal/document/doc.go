// Package document defines line-oriented documents and the reconciliation
// of client edits made against a possibly stale version of them.
//
// Every accepted edit bumps the document version by one. Documents are
// treated as values: Reconcile and Apply return new documents with freshly
// allocated line slices and leave their inputs untouched.
package document
