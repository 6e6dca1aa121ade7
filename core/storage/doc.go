// Package storage wraps the Minio S3 client behind a narrow interface.
//
// Completed reconciliation runs archive a JSON report artifact to the
// configured bucket; the interface is intentionally limited to the
// operations that workflow needs so tests can mock it cheaply.
package storage
