// uploads.go

package main

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
)

const uploadDir = "uploads"

// uploadName prefixes the client file name with a millisecond timestamp so
// stored names never collide.
func uploadName(original string) string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(original))
}

// saveUpload writes one uploaded file into the uploads directory and returns
// the stored file name.
func saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	name := uploadName(fh.Filename)
	if err := c.SaveUploadedFile(fh, filepath.Join(uploadDir, name)); err != nil {
		return "", err
	}
	return name, nil
}

// removeUploads deletes the named files from the uploads directory,
// best-effort. Entities store either bare file names or "uploads/..." paths,
// so only the base name is trusted. Missing files are not an error; anything
// else is collected as a warning for the response, never a hard failure.
func removeUploads(refs []string) []string {
	var warnings []string
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		p := filepath.Join(uploadDir, filepath.Base(ref))
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("failed to delete %s: %v", p, err))
		}
	}
	return warnings
}
