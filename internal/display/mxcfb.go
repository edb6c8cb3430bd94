package display

// Refresh parameters understood by the i.MX EPDC driver
const (
	WaveformModeAuto          uint32 = 0x101
	UpdateModePartial         uint32 = 0x0
	UpdateModeFull            uint32 = 0x1
	DitheringPassthrough      int32  = 0x0
	DitheringMax              int32  = 0x5
	TemperatureRemarkableDraw int32  = 0x0018
)

// Rect is an update region in panel coordinates
type Rect struct {
	Top    uint32
	Left   uint32
	Width  uint32
	Height uint32
}

type altBufferData struct {
	PhysAddr uint32
	Width    uint32
	Height   uint32
	Region   Rect
}

// Update mirrors struct mxcfb_update_data; field order and widths matter.
type Update struct {
	Region      Rect
	Waveform    uint32
	Mode        uint32
	Marker      uint32
	Temperature int32
	Flags       uint32
	Dither      int32
	QuantBit    int32
	altBuffer   altBufferData
}

// FullRefresh returns the update used after a restore: whole panel, automatic
// waveform, full update mode, maximum dithering, fixed temperature, no flags.
func FullRefresh(geo Geometry, temperature int32) Update {
	return Update{
		Region: Rect{
			Top:    0,
			Left:   0,
			Width:  uint32(geo.Width),
			Height: uint32(geo.Height),
		},
		Waveform:    WaveformModeAuto,
		Mode:        UpdateModeFull,
		Marker:      0,
		Temperature: temperature,
		Flags:       0,
		Dither:      DitheringMax,
	}
}
