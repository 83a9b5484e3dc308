package service

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// UploadPolicy bounds what an image upload may contain. The content type is
// sniffed from the bytes, never taken from the request.
type UploadPolicy struct {
	MaxBytes     int64
	AllowedTypes []string
}

const (
	defaultProgressPhotoMaxBytes = 5 * 1024 * 1024
	defaultExerciseImageMaxBytes = 3 * 1024 * 1024
)

// ProgressPhotoPolicy accepts JPEG (.jpg/.jpeg), PNG and WebP up to maxBytes.
func ProgressPhotoPolicy(maxBytes int64) UploadPolicy {
	if maxBytes <= 0 {
		maxBytes = defaultProgressPhotoMaxBytes
	}
	return UploadPolicy{MaxBytes: maxBytes, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}}
}

// ExerciseImagePolicy accepts JPEG and PNG up to maxBytes.
func ExerciseImagePolicy(maxBytes int64) UploadPolicy {
	if maxBytes <= 0 {
		maxBytes = defaultExerciseImageMaxBytes
	}
	return UploadPolicy{MaxBytes: maxBytes, AllowedTypes: []string{"image/jpeg", "image/png"}}
}

// Upload is a file that passed a policy check, held in memory.
type Upload struct {
	ContentType string
	Data        []byte
}

func (u *Upload) Size() int64 { return int64(len(u.Data)) }

func (u *Upload) Reader() io.Reader { return bytes.NewReader(u.Data) }

// Read consumes r and checks it against the policy. At most MaxBytes+1 bytes
// are read, so an oversized body is rejected without buffering all of it.
func (p UploadPolicy) Read(r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ValidationErrors{"file": "file is empty"}
	}
	if int64(len(data)) > p.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, p.MaxBytes)
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), p.AllowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeRejected, detected.String())
	}
	return &Upload{ContentType: detected.String(), Data: data}, nil
}
