package models

import "time"

// UploadKind is the applicant document category an upload belongs to.
type UploadKind string

const (
	UploadKindCV    UploadKind = "cv"
	UploadKindToefl UploadKind = "toefl"
	UploadKind360   UploadKind = "360"
	UploadKindPhoto UploadKind = "photo"
)

// Valid reports whether k is a known upload kind.
func (k UploadKind) Valid() bool {
	switch k {
	case UploadKindCV, UploadKindToefl, UploadKind360, UploadKindPhoto:
		return true
	}
	return false
}

// StoredUpload describes a file accepted by the upload endpoint. File is the
// reference stored on submissions; URL is a signed, expiring download link.
type StoredUpload struct {
	File      string     `json:"file"`
	Kind      UploadKind `json:"kind"`
	MIMEType  string     `json:"mimeType"`
	Size      int64      `json:"size"`
	URL       string     `json:"url"`
	ExpiresAt time.Time  `json:"expiresAt"`
}
