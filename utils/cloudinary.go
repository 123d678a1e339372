package utils

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryProofStorage uploads proofs to Cloudinary.
type CloudinaryProofStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryProofStorage(cloudName, apiKey, apiSecret string) (*CloudinaryProofStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryProofStorage{cld: cld, folder: "trucktrack"}, nil
}

// Save uploads the file and returns the secure URL
func (s *CloudinaryProofStorage) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	dir, file := path.Split(key)
	uploadParams := uploader.UploadParams{
		PublicID: strings.TrimSuffix(file, path.Ext(file)),
		Folder:   path.Join(s.folder, dir),
	}

	resp, err := s.cld.Upload.Upload(ctx, r, uploadParams)
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}
