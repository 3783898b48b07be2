package fingerprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Размер off-screen поверхности. Маленькой достаточно: важна не
// картинка, а то, как конкретное окружение ее закодирует.
const (
	rasterWidth  = 64
	rasterHeight = 16
)

// RenderRaster draws a deterministic procedural pattern on a temporary
// off-screen surface, salted with the platform string, and returns it
// PNG-encoded as a data string. The surface is discarded; only the data
// string leaves this function. The encoder output is the entropy source:
// it depends on the exact image stack the client build carries.
func (s *HostSource) RenderRaster() (string, error) {
	platform, err := s.Platform()
	if err != nil {
		platform = Unknown
	}

	img := image.NewRGBA(image.Rect(0, 0, rasterWidth, rasterHeight))
	salt := []byte(platform)
	if len(salt) == 0 {
		salt = []byte{0}
	}

	for y := 0; y < rasterHeight; y++ {
		for x := 0; x < rasterWidth; x++ {
			// Градиент + полосы, зависящие от платформенной соли
			b := salt[(x+y)%len(salt)]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / rasterWidth),
				G: uint8(y * 255 / rasterHeight),
				B: b,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode raster: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
