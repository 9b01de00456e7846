package images

import (
	"bytes"
	"context"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/filex"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/google/uuid"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const contentTypeJPEG = "image/jpeg"

// Upload is one file received with a request, staged on local disk.
type Upload struct {
	OriginalName string
	TempPath     string
}

// Pipeline transcodes uploads one by one. A file that cannot be read,
// decoded, encoded or stored is logged and skipped; the others still go
// through. Staged files are always removed.
type Pipeline struct {
	storage   Storage
	maxWidth  int
	maxPixels int64
	quality   int
	logger    logging.Logger
	newName   func() string
}

// NewPipeline builds a pipeline. Images wider than maxWidth are downscaled;
// images whose declared width*height exceeds maxPixels are rejected before
// decoding. Zero disables either limit.
func NewPipeline(storage Storage, maxWidth int, maxPixels int64, quality int, logger logging.Logger) *Pipeline {
	return &Pipeline{
		storage:   storage,
		maxWidth:  maxWidth,
		maxPixels: maxPixels,
		quality:   quality,
		logger:    logger.With("module", "images"),
		newName:   func() string { return uuid.NewString() + ".jpg" },
	}
}

// Process returns the public paths of the stored images in upload order.
// More than common.MaxImagesPerRequest uploads is a validation error and
// nothing is processed.
func (p *Pipeline) Process(ctx context.Context, uploads []Upload) ([]string, error) {
	if len(uploads) > common.MaxImagesPerRequest {
		p.discard(ctx, uploads)
		return nil, common.Validationf("at most %d images per request", common.MaxImagesPerRequest)
	}

	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		name, ok := p.processOne(ctx, u)
		if ok {
			paths = append(paths, common.PublicImagePrefix+name)
		}
	}
	return paths, nil
}

func (p *Pipeline) processOne(ctx context.Context, u Upload) (string, bool) {
	defer p.removeTemp(ctx, u)

	data, err := os.ReadFile(u.TempPath)
	if err != nil {
		p.logger.Error(ctx, "read upload failed", "file", u.OriginalName, "error", err)
		return "", false
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		p.logger.Error(ctx, "decode upload failed", "file", u.OriginalName, "error", err)
		return "", false
	}
	if p.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		p.logger.Error(ctx, "upload exceeds pixel limit", "file", u.OriginalName, "format", format,
			"width", cfg.Width, "height", cfg.Height, "limit", p.maxPixels)
		return "", false
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		p.logger.Error(ctx, "decode upload failed", "file", u.OriginalName, "error", err)
		return "", false
	}

	if p.maxWidth > 0 && img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		p.logger.Error(ctx, "encode upload failed", "file", u.OriginalName, "error", err)
		return "", false
	}

	name := p.newName()
	if err := p.storage.Put(ctx, name, &buf, int64(buf.Len()), contentTypeJPEG); err != nil {
		p.logger.Error(ctx, "store image failed", "file", u.OriginalName, "name", name, "error", err)
		return "", false
	}

	p.logger.Debug(ctx, "image stored", "file", u.OriginalName, "name", name)
	return name, true
}

func (p *Pipeline) discard(ctx context.Context, uploads []Upload) {
	for _, u := range uploads {
		p.removeTemp(ctx, u)
	}
}

func (p *Pipeline) removeTemp(ctx context.Context, u Upload) {
	if err := filex.RemoveIfExists(u.TempPath); err != nil {
		p.logger.Warn(ctx, "remove staged upload failed", "path", u.TempPath, "error", err)
	}
}
