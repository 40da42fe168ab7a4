// Package storage provides the optional S3/Minio publishing target for
// rendered export files.
//
// The exporter always writes CSV/JSON atomically to the local export
// directory; when publishing is enabled the same bytes are additionally
// uploaded to an S3-compatible bucket after the local rename, so remote
// consumers observe the same complete-file-or-nothing contract.
//
// The Client interface is intentionally narrow (bucket check, bucket
// create, object put) and has a testify mock under mocks/.
package storage
