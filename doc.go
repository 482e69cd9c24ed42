// Package sharedfile lets a single writer append to a backing store while any number of
// readers consume it concurrently as if it were an ordinary growing file. Readers that catch
// up with the writer block until more bytes are committed or the writer finishes, so they
// never see a premature io.EOF and never see bytes the writer has not committed.
//
// The backing store is anything that can append and read at an explicit offset, such as an
// *os.File. The memstore, tempfile and pebblestore packages provide ready-made backings.
package sharedfile
