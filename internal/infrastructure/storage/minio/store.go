package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/SolarSite-Intelligence/internal/application/analysis"
	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

const jsonContentType = "application/json"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes reports and archived uploads.
type Store struct {
	client *Client
	logger logging.Logger
}

var (
	_ analysis.ResultRecorder = (*Store)(nil)
	_ analysis.ReportStore    = (*Store)(nil)
)

func NewStore(c *Client) *Store {
	return &Store{client: c, logger: c.logger}
}

func (s *Store) Name() string { return "minio" }

// ReportKey is the object key of an analysis report.
func ReportKey(analysisID string) string { return "analyses/" + analysisID + ".json" }

// UploadKey is the object key of an archived boundary upload.
func UploadKey(sessionID, filename string) string {
	name := unsafeName.ReplaceAllString(path.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "boundary"
	}
	return "sessions/" + sessionID + "/" + name
}

// Record implements analysis.ResultRecorder by storing the full result as
// an indented JSON report.
func (s *Store) Record(ctx context.Context, res *analysis.AreaAnalysisResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report")
	}
	_, err = s.client.api.PutObject(ctx, s.client.cfg.Buckets.Reports, ReportKey(res.ID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: jsonContentType,
		UserMetadata: map[string]string{
			"analysis-id": res.ID,
			"session-id":  res.SessionID,
			"decision":    string(res.Decision),
			"final-score": strconv.FormatFloat(res.FinalScore, 'f', 2, 64),
		},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageUploadFailed, "failed to store report").WithDetail("analysis=" + res.ID)
	}
	s.logger.Debug("report stored", logging.AnalysisID(res.ID), logging.Int("bytes", len(data)))
	return nil
}

// ReportURL implements analysis.ReportStore with a presigned download link.
func (s *Store) ReportURL(ctx context.Context, analysisID string) (string, error) {
	key := ReportKey(analysisID)
	bucket := s.client.cfg.Buckets.Reports
	if _, err := s.client.api.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return "", errors.New(errors.ErrCodeStorageObjectNotFound, "report not found").WithDetail("analysis=" + analysisID)
		}
		return "", errors.Wrap(err, errors.ErrCodeStorageDownloadFailed, "failed to stat report")
	}
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="solarsite-%s.json"`, analysisID))
	u, err := s.client.api.PresignedGetObject(ctx, bucket, key, s.client.cfg.PresignExpiry, params)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageDownloadFailed, "failed to presign report URL")
	}
	return u.String(), nil
}

// ArchiveUpload keeps the raw boundary file of a session and returns its key.
func (s *Store) ArchiveUpload(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.InvalidParam("upload is empty")
	}
	key := UploadKey(sessionID, filename)
	_, err := s.client.api.PutObject(ctx, s.client.cfg.Buckets.Uploads, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentTypeFor(filename),
		UserMetadata: map[string]string{"session-id": sessionID, "original-name": filename},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageUploadFailed, "failed to archive upload").WithDetail("key=" + key)
	}
	s.logger.Debug("upload archived", logging.SessionID(sessionID), logging.String("key", key))
	return key, nil
}

// DeleteReport removes the report of analysisID.
func (s *Store) DeleteReport(ctx context.Context, analysisID string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.cfg.Buckets.Reports, ReportKey(analysisID), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete report")
	}
	return nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".kml":
		return "application/vnd.google-earth.kml+xml"
	case ".geojson", ".json":
		return "application/geo+json"
	default:
		return "application/octet-stream"
	}
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

//Personal.AI order the ending
