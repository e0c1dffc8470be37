package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"os"
	"path"
	"path/filepath"

	"peopleconnects/internal/config"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "static/uploads"
	DefaultMaxUploadSizeMB = 10
	// MediaURLPrefix is the public path the upload directory is served under.
	MediaURLPrefix = "/static/uploads"

	MaxImageSize  = 1200
	ThumbnailSize = 300
	JPEGQuality   = 85
	WebPQuality   = 75
)

// LocalMediaStore re-encodes uploaded images and writes them under a
// directory served statically.
type LocalMediaStore struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewLocalMediaStore reads UPLOAD_DIR and MAX_UPLOAD_SIZE_MB from cfg.
func NewLocalMediaStore(cfg *config.Config) *LocalMediaStore {
	uploadDir := DefaultUploadDir
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.MaxUploadSizeMB
		}
	}
	return &LocalMediaStore{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir is the root directory files are written to.
func (s *LocalMediaStore) Dir() string {
	return s.uploadDir
}

// Store validates data as an image and writes a JPEG master, a WebP copy
// and a square JPEG thumbnail. It returns the public path of the master.
func (s *LocalMediaStore) Store(_ context.Context, namespace string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(data)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(data)) {
		return "", models.NewValidationError("Invalid image type")
	}
	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return "", models.NewValidationError("Unsupported image format")
	}

	master := resizeToFit(decoded, MaxImageSize, MaxImageSize)
	masterJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	masterWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	thumbJPG, err := encodeJPEG(squareThumbnail(decoded, ThumbnailSize), JPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	name := uuid.New().String()
	dir := filepath.Join(s.uploadDir, namespace)
	files := []struct {
		name string
		data []byte
	}{
		{name + ".jpg", masterJPG},
		{name + ".webp", masterWebP},
		{name + "_thumb.jpg", thumbJPG},
	}
	var written []string
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := writeBytesToFile(p, f.data); err != nil {
			cleanupImageFiles(written)
			return "", models.NewInternalError(err)
		}
		written = append(written, p)
		observability.MediaStoredBytes.WithLabelValues(namespace).Add(float64(len(f.data)))
	}

	return path.Join(MediaURLPrefix, namespace, name+".jpg"), nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// squareThumbnail center-crops src to a square and scales it to size.
func squareThumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(crop, crop.Bounds(), src, image.Pt(x0, y0), draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), crop, crop.Bounds(), xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
