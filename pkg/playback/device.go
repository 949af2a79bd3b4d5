package playback

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Device abstracts the sound backend so the controller can be exercised
// without audio hardware. The default implementation forwards to the
// process-wide beep speaker.
type Device interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(streamers ...beep.Streamer)
	Lock()
	Unlock()
	Clear()
}

type speakerDevice struct{}

// NewSpeakerDevice returns the hardware-backed default device.
func NewSpeakerDevice() Device {
	return speakerDevice{}
}

func (speakerDevice) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (speakerDevice) Play(streamers ...beep.Streamer) {
	speaker.Play(streamers...)
}

func (speakerDevice) Lock()   { speaker.Lock() }
func (speakerDevice) Unlock() { speaker.Unlock() }
func (speakerDevice) Clear()  { speaker.Clear() }
