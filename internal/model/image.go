package model

type ImageDeleteRequest struct {
	ImageIds []string `json:"imageIds"`
}

type ImagePurgeRequest struct {
	ProfileIds []string `json:"profileIds"`
}

// BlobDownload is one element of a bulk download sequence. Err is set when
// this object could not be fetched; Data is nil in that case.
type BlobDownload struct {
	Key  string
	Data []byte
	Err  error
}
