package domain

import "fmt"

type ImageKind string

const (
	ImageExisting ImageKind = "EXISTING"
	ImageNew      ImageKind = "NEW"
)

// MaxImagesPerValue coincide con los campos image_file..image_file_9 del upload.
const MaxImagesPerValue = 10

// ImageRef es una imagen asociada a un valor del eje principal. Las EXISTING
// llevan el id remoto del valor; las NEW llevan el archivo en memoria.
type ImageRef struct {
	Kind     ImageKind `json:"kind"`
	RemoteID string    `json:"remote_id,omitempty"`
	URL      string    `json:"url,omitempty"`
	FileName string    `json:"file_name,omitempty"`
	Data     []byte    `json:"-"`
}

func NewImage(fileName string, data []byte) ImageRef {
	return ImageRef{Kind: ImageNew, FileName: fileName, Data: data}
}

func ExistingImage(valueID, url string) ImageRef {
	return ImageRef{Kind: ImageExisting, RemoteID: valueID, URL: url}
}

type UploadMode string

const (
	UploadAddVariation    UploadMode = "ADD_VARIATION"
	UploadUpdateVariation UploadMode = "UPDATE_VARIATION"
)

func UploadModeFor(m CallMode) UploadMode {
	if m == CallModeUpdate {
		return UploadUpdateVariation
	}
	return UploadAddVariation
}

// ImageUpload es un pedido multipart por valor del eje principal.
type ImageUpload struct {
	Mode    UploadMode
	ValueID string
	Value   string
	Files   []ImageRef
}

// ImageFieldName devuelve image_file, image_file_1 ... image_file_9.
func ImageFieldName(i int) string {
	if i == 0 {
		return "image_file"
	}
	return fmt.Sprintf("image_file_%d", i)
}
