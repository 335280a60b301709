package compose

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"os"
	"strings"

	_ "image/jpeg"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// QRPrefix marks a slot binding whose content is generated rather than read:
// "qr:https://example.com" renders a QR code of the text after the prefix.
const QRPrefix = "qr:"

// qrSize is the pixel size QR codes are generated at before fitting.
const qrSize = 1024

// LoadImage decodes a PNG, JPEG or WebP file into NRGBA. EXIF orientation
// is ignored; pixels are used as stored.
func LoadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return imaging.Clone(img), nil
}

// loadSource resolves a slot binding to an image. It returns (nil, nil) when
// the binding points at no existing file.
func loadSource(binding string) (*image.NRGBA, error) {
	if text, ok := strings.CutPrefix(binding, QRPrefix); ok {
		return QRImage(text)
	}
	if info, err := os.Stat(binding); err != nil || info.IsDir() {
		return nil, nil
	}
	return LoadImage(binding)
}

// QRImage renders text as a QR code with medium error correction.
func QRImage(text string) (*image.NRGBA, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty QR content")
	}
	data, err := qrcode.Encode(text, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode QR code")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode QR code")
	}
	return imaging.Clone(img), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return errors.Wrap(errors.ErrCodeOutputFailed, err, "encode png")
	}
	return nil
}
