package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"requirement-service/internal/apperror"
	"requirement-service/internal/storage"
)

func newTestUploads(t *testing.T, maxSize int64) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	return NewUploadService(store, maxSize)
}

func TestUploadLogo(t *testing.T) {
	uploads := newTestUploads(t, 1024)
	ctx := context.Background()
	content := []byte("\x89PNG fake image")

	logo, err := uploads.UploadLogo(ctx, "Brand.PNG", "image/png", int64(len(content)), bytes.NewReader(content))
	if err != nil {
		t.Fatalf("UploadLogo() error = %v", err)
	}
	if !strings.HasPrefix(logo.Filename, "logo_") || !strings.HasSuffix(logo.Filename, ".png") || len(logo.Filename) != len("logo_")+32+len(".png") {
		t.Errorf("Filename = %q", logo.Filename)
	}
	if logo.URL != LogoURLPrefix+logo.Filename || logo.Size != int64(len(content)) {
		t.Errorf("UploadLogo() = %+v", logo)
	}

	rc, contentType, err := uploads.OpenLogo(ctx, logo.Filename)
	if err != nil {
		t.Fatalf("OpenLogo() error = %v", err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, content) || contentType != "image/png" {
		t.Errorf("OpenLogo() = %q, %q", got, contentType)
	}

	list, err := uploads.ListLogos(ctx)
	if err != nil || len(list) != 1 || list[0].Filename != logo.Filename {
		t.Errorf("ListLogos() = %+v, %v", list, err)
	}

	if err := uploads.DeleteLogo(ctx, logo.Filename); err != nil {
		t.Fatalf("DeleteLogo() error = %v", err)
	}
	assertKind(t, uploads.DeleteLogo(ctx, logo.Filename), apperror.KindNotFound)
	_, _, err = uploads.OpenLogo(ctx, "../etc/passwd")
	assertKind(t, err, apperror.KindNotFound)
}

func TestUploadLogoRejects(t *testing.T) {
	uploads := newTestUploads(t, 8)
	ctx := context.Background()

	_, err := uploads.UploadLogo(ctx, "doc.pdf", "application/pdf", 4, strings.NewReader("%PDF"))
	assertKind(t, err, apperror.KindValidation)

	_, err = uploads.UploadLogo(ctx, "big.png", "image/png", 9, strings.NewReader("123456789"))
	assertKind(t, err, apperror.KindValidation)

	// undeclared size is checked against the stored length
	_, err = uploads.UploadLogo(ctx, "big.png", "image/png", -1, strings.NewReader("123456789"))
	assertKind(t, err, apperror.KindValidation)

	list, err := uploads.ListLogos(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("ListLogos() = %+v, %v, want empty", list, err)
	}

	logo, err := uploads.UploadLogo(ctx, "icon", "image/svg+xml; charset=utf-8", 5, strings.NewReader("<svg>"))
	if err != nil {
		t.Fatalf("UploadLogo(svg) error = %v", err)
	}
	if !strings.HasSuffix(logo.Filename, ".svg") || logo.ContentType != "image/svg+xml" {
		t.Errorf("UploadLogo(svg) = %+v", logo)
	}
}

func TestUploadLogoExtensionFollowsType(t *testing.T) {
	uploads := newTestUploads(t, 1024)
	ctx := context.Background()
	png := []byte("\x89PNG fake image")

	tests := []struct {
		name        string
		filename    string
		contentType string
		wantExt     string
		wantErr     bool
	}{
		{"html declared as png", "x.html", "image/png", "", true},
		{"png declared as gif", "x.png", "image/gif", "", true},
		{"jpeg spelling", "photo.JPEG", "image/jpeg", ".jpg", false},
		{"jpg alias type", "photo.jpg", "image/jpg", ".jpg", false},
		{"no extension", "logo", "image/png", ".png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logo, err := uploads.UploadLogo(ctx, tt.filename, tt.contentType, int64(len(png)), bytes.NewReader(png))
			if tt.wantErr {
				assertKind(t, err, apperror.KindValidation)
				return
			}
			if err != nil {
				t.Fatalf("UploadLogo() error = %v", err)
			}
			if !strings.HasSuffix(logo.Filename, tt.wantExt) {
				t.Errorf("Filename = %q, want suffix %q", logo.Filename, tt.wantExt)
			}
		})
	}

	list, err := uploads.ListLogos(ctx)
	if err != nil {
		t.Fatalf("ListLogos() error = %v", err)
	}
	for _, l := range list {
		if strings.HasSuffix(l.Filename, ".html") {
			t.Errorf("stored %q", l.Filename)
		}
	}
}

func TestOpenLogoServesOnlyImageTypes(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	uploads := NewUploadService(store, 1024)
	ctx := context.Background()

	// written around the upload path, as an older release could have done
	if _, err := store.Put(ctx, "logo_old.html", strings.NewReader("<script>alert(1)</script>")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	rc, contentType, err := uploads.OpenLogo(ctx, "logo_old.html")
	if err != nil {
		t.Fatalf("OpenLogo() error = %v", err)
	}
	rc.Close()
	if contentType != "application/octet-stream" {
		t.Errorf("content type = %q, want application/octet-stream", contentType)
	}
}
