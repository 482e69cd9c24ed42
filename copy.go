package sharedfile

import "io"

const copyChunkSize = 32 * 1024

// copyChunks moves data from read to write until read reports io.EOF. Unlike
// io.Copy it takes plain functions, so callers can bind a context to the read.
func copyChunks(read, write func([]byte) (int, error)) (int64, error) {
	chunk := make([]byte, copyChunkSize)
	var total int64
	for {
		n, readErr := read(chunk)
		if n > 0 {
			written, err := write(chunk[:n])
			if written > 0 && written <= n {
				total += int64(written)
			}
			switch {
			case err != nil:
				return total, err
			case written != n:
				return total, io.ErrShortWrite
			}
		}
		switch readErr {
		case nil:
		case io.EOF:
			return total, nil
		default:
			return total, readErr
		}
	}
}
