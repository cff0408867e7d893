package capture

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"

	"github.com/organicai/scanner/internal/domain"
)

// Decoder reads a barcode from one frame
type Decoder interface {
	// Decode returns the barcode text, or an error wrapping domain.ErrNoBarcode
	Decode(img image.Image) (string, error)
}

// Symbologies accepted by the barcode decoder
var Symbologies = []gozxing.BarcodeFormat{
	gozxing.BarcodeFormat_EAN_13,
	gozxing.BarcodeFormat_EAN_8,
	gozxing.BarcodeFormat_UPC_A,
	gozxing.BarcodeFormat_UPC_E,
}

// ProductCodeDecoder decodes EAN-13, EAN-8, UPC-A and UPC-E codes
type ProductCodeDecoder struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewProductCodeDecoder creates a decoder restricted to Symbologies
func NewProductCodeDecoder() *ProductCodeDecoder {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_POSSIBLE_FORMATS: Symbologies,
		gozxing.DecodeHintType_TRY_HARDER:       true,
	}
	return &ProductCodeDecoder{
		reader: oned.NewMultiFormatUPCEANReader(hints),
		hints:  hints,
	}
}

// Decode implements Decoder
func (d *ProductCodeDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoBarcode, err)
	}

	result, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNoBarcode, err)
	}
	return result.GetText(), nil
}
