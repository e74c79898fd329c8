// Package source reads delimited text (CSV and TSV) into headers and a lazy
// sequence of rows.
//
// Inputs may be local files, file:// URLs, http(s):// URLs or s3://bucket/key
// objects, optionally compressed with gzip, bzip2, xz or zstd. Compression
// and delimiter are chosen from the file extension unless overridden.
package source
