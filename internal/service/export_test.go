//go:build integration

package service

// ChunkableContent exposes chunkableContent to the external integration test
// package.
func ChunkableContent() (string, []string) {
	return chunkableContent()
}
