package crypt

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"
)

// Compress some data using the GZip algorithm at its best compression level.
func Compress(data []byte) ([]byte, error) {
	compressed := new(bytes.Buffer)
	writer, err := gzip.NewWriterLevel(compressed, flate.BestCompression)
	if err != nil {
		return nil, err
	}

	if _, err := writer.Write(data); err != nil {
		return nil, errors.Wrap(err, "gzip")
	}

	// Closing flushes the footer, without which the stream can't be read back.
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip")
	}

	return compressed.Bytes(), nil
}

// Decompress some data compressed by the GZip algorithm.
func Decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "gunzip")
	}

	return result, nil
}
