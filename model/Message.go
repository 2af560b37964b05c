package model

// ImageMessage is the payload published on the image processing queue
type ImageMessage struct {
	PostID          string `json:"post_id"`
	ImageBase64Data string `json:"image_base64_data"`
}
