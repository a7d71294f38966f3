package fusioncache

import "image"

// sizeOf estimates the in-memory footprint of a value in bytes. It is
// called once per memory-tier insertion; the result is recorded on the
// entry and never recomputed.
//
// Encoded kinds (Record, List, Blob) are measured by their encoded
// length, images by their pixel buffer.
func sizeOf(v Value) (int64, error) {
	switch v := v.(type) {
	case String:
		return int64(len(v)), nil
	case Bytes:
		return int64(len(v)), nil
	case Image:
		return imageSize(v.Image), nil
	case Record, List, Blob:
		data, err := v.encode()
		if err != nil {
			return 0, err
		}
		return int64(len(data)), nil
	default:
		data, err := v.encode()
		if err != nil {
			return 0, err
		}
		return int64(len(data)), nil
	}
}

// imageSize reports the pixel buffer size of common image types, and
// falls back to 4 bytes per pixel over the bounds for anything else.
func imageSize(img image.Image) int64 {
	switch img := img.(type) {
	case *image.RGBA:
		return int64(len(img.Pix))
	case *image.NRGBA:
		return int64(len(img.Pix))
	case *image.RGBA64:
		return int64(len(img.Pix))
	case *image.NRGBA64:
		return int64(len(img.Pix))
	case *image.Alpha:
		return int64(len(img.Pix))
	case *image.Gray:
		return int64(len(img.Pix))
	case *image.Gray16:
		return int64(len(img.Pix))
	case *image.Paletted:
		return int64(len(img.Pix))
	case *image.YCbCr:
		return int64(len(img.Y) + len(img.Cb) + len(img.Cr))
	case nil:
		return 0
	default:
		b := img.Bounds()
		return int64(b.Dx()) * int64(b.Dy()) * 4
	}
}
