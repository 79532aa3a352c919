// Command normherd batch-normalizes the audio loudness of media files with
// ffmpeg. It bounds how many encodes run at once, aggregates live progress
// across all of them, and shuts down cleanly on interrupt.
package main

import "os"

func main() {
	os.Exit(run())
}
