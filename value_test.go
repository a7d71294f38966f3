package fusioncache

import (
	"image"
	"testing"
)

func TestSizeOf(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  int64
	}{
		{"string", String("hello"), 5},
		{"empty string", String(""), 0},
		{"bytes", Bytes(make([]byte, 32)), 32},
		{"record", Record{"a": float64(1)}, int64(len(`{"a":1}`))},
		{"list", List{"x"}, int64(len(`["x"]`))},
		{"rgba image", Image{Image: image.NewRGBA(image.Rect(0, 0, 3, 3))}, 3 * 3 * 4},
		{"gray image", Image{Image: image.NewGray(image.Rect(0, 0, 4, 4))}, 4 * 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sizeOf(tt.value)
			if err != nil {
				t.Fatalf("sizeOf failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("sizeOf = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValueKinds(t *testing.T) {
	kinds := map[Kind]Value{
		KindString: String(""),
		KindRecord: Record{},
		KindList:   List{},
		KindBytes:  Bytes{},
		KindImage:  Image{},
		KindBlob:   Blob{},
	}
	for want, v := range kinds {
		if got := v.Kind(); got != want {
			t.Errorf("%T.Kind() = %v, want %v", v, got, want)
		}
	}
}

func TestDecodeValue_Corrupted(t *testing.T) {
	for _, kind := range []Kind{KindRecord, KindList, KindImage, KindBlob} {
		if _, err := decodeValue(kind, []byte("not valid")); err == nil {
			t.Errorf("decodeValue(%v) accepted garbage", kind)
		}
	}
}
