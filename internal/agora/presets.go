package agora

import "fmt"

// Storage vendor IDs as the provider's storageConfig defines them.
const (
	VendorAmazonS3    = 1
	VendorGoogleCloud = 2
)

// TranscodingConfig tunes composite-mode video output.
type TranscodingConfig struct {
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FPS              int    `json:"fps"`
	Bitrate          int    `json:"bitrate"`
	MixedVideoLayout int    `json:"mixedVideoLayout"`
	BackgroundColor  string `json:"backgroundColor,omitempty"`
}

// Preset is a deployment-fixed recording configuration template. Per-request
// data never flows into a preset; the channel, uid and resource identifiers
// are supplied separately on every start call.
type Preset struct {
	Name                string
	Mode                string // "mix" or "composite"
	MaxIdleTime         int    // seconds with no user before the recording stops
	StreamTypes         int    // 0 audio, 1 video, 2 both
	ChannelType         int    // 0 communication, 1 live broadcast
	VideoStreamType     int    // 0 high stream, 1 low stream
	PostponeTranscoding bool
	Transcoding         *TranscodingConfig
	AVFileType          []string // output containers, e.g. ["m4a"], ["hls","mp4"]
	StorageVendor       int
	StorageRegion       int
	FileNamePrefix      []string
}

// presets are the documented recording configurations. Historically these
// existed as copy-pasted handler revisions differing only in these constants;
// they are kept here as named presets selected once at deployment.
var presets = map[string]Preset{
	// Default: audio-only mix recording to m4a, matching the first deployed
	// configuration (GCS bucket, "records/" prefix).
	"audio-m4a": {
		Name:                "audio-m4a",
		Mode:                "mix",
		MaxIdleTime:         30,
		StreamTypes:         0,
		ChannelType:         0,
		VideoStreamType:     0,
		PostponeTranscoding: true,
		AVFileType:          []string{"m4a"},
		StorageVendor:       VendorGoogleCloud,
		StorageRegion:       0,
		FileNamePrefix:      []string{"records"},
	},
	// Audio-only, HLS segments instead of a postponed m4a remux.
	"audio-hls": {
		Name:            "audio-hls",
		Mode:            "mix",
		MaxIdleTime:     30,
		StreamTypes:     0,
		ChannelType:     0,
		VideoStreamType: 0,
		AVFileType:      []string{"hls"},
		StorageVendor:   VendorGoogleCloud,
		StorageRegion:   0,
		FileNamePrefix:  []string{"records", "audio"},
	},
	// Audio+video mix for live-broadcast channels.
	"audio-video-mix": {
		Name:            "audio-video-mix",
		Mode:            "mix",
		MaxIdleTime:     60,
		StreamTypes:     2,
		ChannelType:     1,
		VideoStreamType: 0,
		AVFileType:      []string{"hls", "mp4"},
		StorageVendor:   VendorGoogleCloud,
		StorageRegion:   0,
		FileNamePrefix:  []string{"records", "video"},
	},
	// Composite layout with explicit transcoding, mp4 output to S3.
	"composite-mp4": {
		Name:            "composite-mp4",
		Mode:            "composite",
		MaxIdleTime:     60,
		StreamTypes:     2,
		ChannelType:     1,
		VideoStreamType: 0,
		Transcoding: &TranscodingConfig{
			Width:            1280,
			Height:           720,
			FPS:              15,
			Bitrate:          1200,
			MixedVideoLayout: 1,
		},
		AVFileType:     []string{"hls", "mp4"},
		StorageVendor:  VendorAmazonS3,
		StorageRegion:  0,
		FileNamePrefix: []string{"records"},
	},
	// Audio m4a with a long idle window for sessions with sparse speech.
	"long-idle-audio": {
		Name:                "long-idle-audio",
		Mode:                "mix",
		MaxIdleTime:         300,
		StreamTypes:         0,
		ChannelType:         0,
		VideoStreamType:     0,
		PostponeTranscoding: true,
		AVFileType:          []string{"m4a"},
		StorageVendor:       VendorGoogleCloud,
		StorageRegion:       0,
		FileNamePrefix:      []string{"records", "sessions"},
	},
}

// PresetByName returns the named preset. Unknown names are a configuration
// error and should fail startup.
func PresetByName(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("agora: unknown recording preset %q", name)
	}
	return p, nil
}

// PresetNames lists the available preset names.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	return names
}
