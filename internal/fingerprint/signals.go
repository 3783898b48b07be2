package fingerprint

import (
	"strconv"
	"unicode/utf8"
)

//go:generate moq -out source_mock.go . SignalSource

// Unknown подставляется вместо любого недоступного сигнала, чтобы
// количество и порядок полей не зависели от возможностей устройства.
const Unknown = "unknown"

// userAgentPrefixLen - сколько символов user-agent попадает в отпечаток
const userAgentPrefixLen = 64

// SignalSet is the fixed set of environment signals a fingerprint is
// built from. Field order here is the canonical concatenation order of
// the hasher; never reorder fields without a migration plan for every
// stored binding.
type SignalSet struct {
	Display      string // display geometry, "WxH" in cells or pixels
	ColorDepth   string // reported color depth in bits
	Timezone     string // timezone identifier
	Language     string // language tag
	Platform     string // platform string, e.g. "linux/amd64"
	NumCPU       string // logical processor count
	Capabilities string // enumerable-capability count
	Raster       string // rendered raster artifact encoded as a data string
	UserAgent    string // truncated user-agent prefix
}

// Fields returns the signals in canonical order.
func (s SignalSet) Fields() []string {
	return []string{
		s.Display,
		s.ColorDepth,
		s.Timezone,
		s.Language,
		s.Platform,
		s.NumCPU,
		s.Capabilities,
		s.Raster,
		s.UserAgent,
	}
}

// Empty reports whether the set carries no signal at all (zero value).
func (s SignalSet) Empty() bool {
	for _, f := range s.Fields() {
		if f != "" {
			return false
		}
	}
	return true
}

// SignalSource abstracts every ambient read the collector performs.
// Verification and workflow code depend on this interface only, never on
// platform globals, so they stay testable with synthetic signal sets.
type SignalSource interface {
	// DisplayGeometry returns the display size. An error means the
	// signal is unavailable on this device.
	DisplayGeometry() (width, height int, err error)

	// ColorDepth returns the reported color depth in bits.
	ColorDepth() (int, error)

	// Timezone returns the timezone identifier.
	Timezone() (string, error)

	// Language returns the language tag.
	Language() (string, error)

	// Platform returns the platform string.
	Platform() (string, error)

	// NumCPU returns the logical processor count.
	NumCPU() (int, error)

	// CapabilityCount returns the count of some enumerable capability
	// class on the device (the plugin-count analog).
	CapabilityCount() (int, error)

	// RenderRaster draws a temporary off-screen raster and returns it
	// encoded as a data string. The surface is discarded afterwards.
	RenderRaster() (string, error)

	// UserAgent returns the client identification string.
	UserAgent() (string, error)
}

// Collect gathers all signals from src. It never fails: any individual
// signal that is unavailable is replaced with the Unknown sentinel so the
// field count and order stay stable across devices.
func Collect(src SignalSource) SignalSet {
	set := SignalSet{
		Display:      Unknown,
		ColorDepth:   Unknown,
		Timezone:     Unknown,
		Language:     Unknown,
		Platform:     Unknown,
		NumCPU:       Unknown,
		Capabilities: Unknown,
		Raster:       Unknown,
		UserAgent:    Unknown,
	}

	if w, h, err := src.DisplayGeometry(); err == nil {
		set.Display = strconv.Itoa(w) + "x" + strconv.Itoa(h)
	}
	if depth, err := src.ColorDepth(); err == nil {
		set.ColorDepth = strconv.Itoa(depth)
	}
	if tz, err := src.Timezone(); err == nil && tz != "" {
		set.Timezone = tz
	}
	if lang, err := src.Language(); err == nil && lang != "" {
		set.Language = lang
	}
	if platform, err := src.Platform(); err == nil && platform != "" {
		set.Platform = platform
	}
	if n, err := src.NumCPU(); err == nil {
		set.NumCPU = strconv.Itoa(n)
	}
	if n, err := src.CapabilityCount(); err == nil {
		set.Capabilities = strconv.Itoa(n)
	}
	if raster, err := src.RenderRaster(); err == nil && raster != "" {
		set.Raster = raster
	}
	if ua, err := src.UserAgent(); err == nil && ua != "" {
		set.UserAgent = truncateUserAgent(ua)
	}

	return set
}

// truncateUserAgent обрезает user-agent до префикса: хвост самый
// изменчивый. Обрезаем по границе руны, чтобы не породить битый UTF-8
// в конкатенации сигналов
func truncateUserAgent(ua string) string {
	if len(ua) <= userAgentPrefixLen {
		return ua
	}

	cut := userAgentPrefixLen
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}
