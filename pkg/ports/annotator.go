package ports

import "image"

// Annotator draws a detection overlay on a frame.
type Annotator interface {
	// Annotate returns an annotated copy of img. When nothing is detected
	// the input is returned unchanged. img is never modified.
	Annotate(img image.Image) image.Image
}

// AnnotatorFunc adapts a plain function to Annotator.
type AnnotatorFunc func(img image.Image) image.Image

// Annotate implements Annotator.
func (f AnnotatorFunc) Annotate(img image.Image) image.Image {
	return f(img)
}

// PassThrough is an Annotator that returns frames untouched.
var PassThrough Annotator = AnnotatorFunc(func(img image.Image) image.Image { return img })
