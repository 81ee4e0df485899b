package blobstore

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/cupuri/portal-backend/internal/pkg/logger"
)

// ErrMalformedReference means a remote reference does not follow the
// /upload/ delivery URL convention and no signing identifier can be
// recovered from it.
var ErrMalformedReference = errors.New("remote reference has no /upload/ segment")

// CloudinaryStore stores exam files in a Cloudinary folder and mints signed
// download URLs for them. All knowledge of Cloudinary's URL layout is kept
// here; swapping the object-storage provider only replaces this file.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore builds a store from account credentials and the folder
// uploads land in.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

// Save uploads one file and returns the public https URL assigned by the
// backend, unmodified. Documents and images alike go up with resource type
// auto, which is why downloads later address them as image-class assets.
func (cs *CloudinaryStore) Save(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	result, err := cs.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       cs.folder,
		ResourceType: "auto",
	})
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Cloudinary upload failed")
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload failed: %s", result.Error.Message)
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("url", result.SecureURL).Msg("File uploaded to cloudinary")
	return result.SecureURL, nil
}

// Delete is a no-op: remote blobs are left in place on exam deletion and
// cleaned up out-of-band. Callers must not assume remote blobs are purged.
func (cs *CloudinaryStore) Delete(_ context.Context, ref string) error {
	logger.Debug().Str("ref", ref).Msg("Skipping remote blob deletion")
	return nil
}

// SignedDownloadURL turns a stored delivery URL into a short-lived signed
// URL that forces attachment disposition. The backend stores non-image
// documents as image-typed assets, so the signed URL is always minted
// against the image delivery type.
func (cs *CloudinaryStore) SignedDownloadURL(ref string) (string, error) {
	rr, err := parseRemoteRef(ref)
	if err != nil {
		return "", err
	}

	publicID := rr.PublicID
	if rr.Format != "" {
		publicID += "." + rr.Format
	}

	img, err := cs.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build asset for %q: %w", publicID, err)
	}
	img.Version = rr.Version
	img.Transformation = "fl_attachment"
	img.Config.URL.SignURL = true

	signedURL, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to sign download url: %w", err)
	}
	return signedURL, nil
}

// remoteRef is the signing identity recovered from a stored delivery URL.
type remoteRef struct {
	PublicID string
	Version  int
	Format   string
}

var versionPrefix = regexp.MustCompile(`^v(\d+)/`)

// parseRemoteRef recovers the public id, optional version and file format
// from a delivery URL. The reference must contain an /upload/ path segment;
// anything else is malformed and never silently served unsigned.
func parseRemoteRef(ref string) (remoteRef, error) {
	idx := strings.Index(ref, "/upload/")
	if idx < 0 {
		return remoteRef{}, fmt.Errorf("%w: %s", ErrMalformedReference, ref)
	}
	rest := ref[idx+len("/upload/"):]

	var version int
	if m := versionPrefix.FindStringSubmatch(rest); m != nil {
		version, _ = strconv.Atoi(m[1])
		rest = rest[len(m[0]):]
	}

	format := ""
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		format = rest[dot+1:]
		rest = rest[:dot]
	}

	return remoteRef{PublicID: rest, Version: version, Format: format}, nil
}
