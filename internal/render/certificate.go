// Package render draws certificate artifacts and stores them in the object store.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/objects"
)

const (
	width  = 1600
	height = 1131
	margin = 60.0
)

var (
	background = color.NRGBA{R: 0xFB, G: 0xF8, B: 0xF1, A: 0xFF}
	accent     = color.NRGBA{R: 0x1F, G: 0x4E, B: 0x79, A: 0xFF}
	ink        = color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}
)

// CertificateRenderer renders certificates to PNG and uploads them.
type CertificateRenderer struct {
	store    objects.Store
	category objects.Category
	face     font.Face
	logger   *zap.Logger
}

// NewCertificateRenderer loads the TTF at fontPath, or falls back to the built-in
// bitmap face when fontPath is empty.
func NewCertificateRenderer(
	store objects.Store,
	category objects.Category,
	fontPath string,
	fontSize float64,
	logger *zap.Logger,
) (*CertificateRenderer, error) {
	var face font.Face = basicfont.Face7x13
	if fontPath != "" {
		f, err := gg.LoadFontFace(fontPath, fontSize)
		if err != nil {
			return nil, fmt.Errorf("load font face: %w", err)
		}
		face = f
	}

	return &CertificateRenderer{
		store:    store,
		category: category,
		face:     face,
		logger:   logger.With(zap.String("component", "certificate_renderer")),
	}, nil
}

// Render draws the certificate, stores it and returns its public reference.
func (r *CertificateRenderer) Render(
	ctx context.Context,
	learner *entities.User,
	course *entities.Course,
	cert *entities.Certificate,
) (string, error) {
	if learner == nil || course == nil || cert == nil {
		return "", errors.New("learner, course and certificate are required")
	}

	png, err := r.draw(learner, course, cert)
	if err != nil {
		return "", err
	}

	key := ArtifactKey(cert)
	if err := r.store.Put(ctx, r.category, key, &png, "image/png"); err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}

	r.logger.Debug("certificate rendered",
		zap.String("certificate_id", cert.ID.String()),
		zap.String("key", key),
	)

	return r.store.URL(r.category, key), nil
}

func (r *CertificateRenderer) draw(
	learner *entities.User,
	course *entities.Course,
	cert *entities.Certificate,
) (bytes.Buffer, error) {
	dc := gg.NewContext(width, height)

	dc.SetColor(background)
	dc.Clear()

	dc.SetColor(accent)
	dc.SetLineWidth(8)
	dc.DrawRectangle(margin, margin, width-2*margin, height-2*margin)
	dc.Stroke()

	dc.SetFontFace(r.face)
	cx := float64(width) / 2

	dc.SetColor(accent)
	dc.DrawStringAnchored("CERTIFICATE OF COMPLETION", cx, height*0.25, 0.5, 0.5)

	dc.SetColor(ink)
	dc.DrawStringAnchored("This certifies that", cx, height*0.38, 0.5, 0.5)
	dc.DrawStringAnchored(displayName(learner), cx, height*0.46, 0.5, 0.5)
	dc.DrawStringAnchored("has completed the course", cx, height*0.56, 0.5, 0.5)
	dc.DrawStringWrapped(course.Title, cx, height*0.64, 0.5, 0.5, width-4*margin, 1.4, gg.AlignCenter)
	dc.DrawStringAnchored(fmt.Sprintf("Level %d", course.Level), cx, height*0.72, 0.5, 0.5)

	dc.DrawStringAnchored("Issued "+cert.IssuedAt.UTC().Format("2 January 2006"), cx, height*0.82, 0.5, 0.5)
	dc.DrawStringAnchored("ID "+cert.ID.String(), cx, height*0.87, 0.5, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode PNG: %w", err)
	}
	return buf, nil
}

// ArtifactKey is the object key of a certificate image.
func ArtifactKey(cert *entities.Certificate) string {
	return fmt.Sprintf("%d/%d/%s.png", cert.LearnerID, cert.CourseID, cert.ID)
}

func displayName(u *entities.User) string {
	if u.Name != "" {
		return u.Name
	}
	return fmt.Sprintf("Learner #%d", u.ID)
}
