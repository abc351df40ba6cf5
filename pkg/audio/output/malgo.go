// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo, fed from a blocking ring buffer
package output

import (
	"fmt"
	"sync"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/gen2brain/malgo"
	log "github.com/sirupsen/logrus"
)

// malgoBufferMillis is how much PCM the ring buffer holds ahead of the device.
const malgoBufferMillis = 200

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	mu         sync.Mutex
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	ringBuffer *RingBuffer
	ready      bool
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	return &Malgo{}
}

// Open initializes the playback device
func (m *Malgo) Open(format audio.Format) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("malgo output already open")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	bufferBytes := format.BytesPerSecond() * malgoBufferMillis / 1000
	ring := NewRingBuffer(bufferBytes)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, _ uint32) {
			ring.Read(pOutput)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device
	m.ringBuffer = ring
	m.ready = true

	log.WithFields(log.Fields{
		"component": "output",
		"backend":   BackendMalgo,
	}).Infof("Audio output initialized: %dHz, %d channels, 16-bit", format.SampleRate, format.Channels)

	return nil
}

// Write queues PCM for playback, blocking while the ring buffer is full
func (m *Malgo) Write(pcm []byte) (int, error) {
	m.mu.Lock()
	ring := m.ringBuffer
	ready := m.ready
	m.mu.Unlock()

	if !ready || ring == nil {
		return 0, ErrClosed
	}
	return ring.Write(pcm)
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ready = false
	if m.ringBuffer != nil {
		m.ringBuffer.Close()
	}
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.WithError(err).Warn("malgo device stop error")
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.WithError(err).Warn("malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
