package domain

import (
	"errors"
	"strings"
)

const (
	variantSeparator = "_"
	// NoColor is the persisted placeholder for a variant without a color.
	NoColor = "none"
)

var ErrInvalidVariant = errors.New("invalid variant: size is required")

// Variant is the size/color selection of a product inside the cart.
// An empty Color means no color was chosen.
type Variant struct {
	Size  string
	Color string
}

// Key returns the persisted string form of the variant.
func (v Variant) Key() (string, error) {
	return EncodeVariant(v.Size, v.Color)
}

func (v Variant) String() string {
	key, err := v.Key()
	if err != nil {
		return "<invalid variant>"
	}
	return key
}

var (
	sizeEscaper   = strings.NewReplacer("%", "%25", "_", "%5F")
	sizeUnescaper = strings.NewReplacer("%25", "%", "%5F", "_")
	colorEscaper  = strings.NewReplacer("%", "%25")
)

// EncodeVariant builds the cart key "<size>_<color|none>".
//
// Sizes containing "_" or "%" and the literal color "none" are escaped so the
// key always decodes back to the same pair. Plain values encode exactly like
// carts written before escaping existed.
func EncodeVariant(size, color string) (string, error) {
	if size == "" {
		return "", ErrInvalidVariant
	}
	return sizeEscaper.Replace(size) + variantSeparator + encodeColor(color), nil
}

func encodeColor(color string) string {
	switch color {
	case "":
		return NoColor
	case NoColor:
		return "%6E" + NoColor[1:]
	default:
		return colorEscaper.Replace(color)
	}
}

// DecodeVariant reverses EncodeVariant. The key is split on the first "_".
func DecodeVariant(key string) (Variant, error) {
	size, color, found := strings.Cut(key, variantSeparator)
	if !found || size == "" {
		return Variant{}, ErrInvalidVariant
	}

	v := Variant{Size: sizeUnescaper.Replace(size)}
	if color != NoColor {
		v.Color = decodeColor(color)
	}
	return v, nil
}

func decodeColor(segment string) string {
	if strings.HasPrefix(segment, "%6E") && segment[3:] == NoColor[1:] {
		return NoColor
	}
	return strings.ReplaceAll(segment, "%25", "%")
}
