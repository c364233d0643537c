// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for packet encoders fed with graph PCM
package encode

// Encoder encodes PCM int32 samples to packets
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

var (
	_ Encoder = (*OpusEncoder)(nil)
	_ Encoder = (*PCMEncoder)(nil)
)
