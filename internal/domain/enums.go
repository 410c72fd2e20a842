package domain

// VarianceLevel classifies how far a charged amount sits from its benchmark.
// The 200%/300% boundaries are asserted in the extraction prompt and enforced
// by the upstream model; locally only enum membership is checked.
type VarianceLevel string

const (
	VarianceNormal   VarianceLevel = "normal"
	VarianceHigh     VarianceLevel = "high"
	VarianceVeryHigh VarianceLevel = "very_high"
)

// ValidVarianceLevels is the set of accepted variance level values.
var ValidVarianceLevels = map[VarianceLevel]bool{
	VarianceNormal:   true,
	VarianceHigh:     true,
	VarianceVeryHigh: true,
}

// UnknownCodeSentinel is returned in place of a billing code the model could
// not read. It is never replaced with a guessed code.
const UnknownCodeSentinel = "unknown"

// ImageType represents the allowed upload types for bill images.
type ImageType string

const (
	ImageTypeJPG  ImageType = "jpg"
	ImageTypePNG  ImageType = "png"
	ImageTypeWebP ImageType = "webp"
	ImageTypePDF  ImageType = "pdf"
)

// AllowedContentTypes maps MIME content types to their ImageType.
var AllowedContentTypes = map[string]ImageType{
	"image/jpeg":      ImageTypeJPG,
	"image/png":       ImageTypePNG,
	"image/webp":      ImageTypeWebP,
	"application/pdf": ImageTypePDF,
}
