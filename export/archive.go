package export

import (
	"archive/zip"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"pixel_forge/entities"
	"pixel_forge/png_metadata"
)

const (
	archiveFolder = "PixelForge_Images"

	BatchArchiveName = "pixelforge_batch.zip"
)

var variationSuffix = regexp.MustCompile(`-\d+$`)

// GroupArchiveName names the archive of a variation group after its base title.
func GroupArchiveName(records []*entities.ImageRecord) string {
	if len(records) > 0 && records[0].Filename != "" {
		return variationSuffix.ReplaceAllString(records[0].Filename, "") + ".zip"
	}

	return "pixelforge-variations.zip"
}

// ImageFilename is the archive entry name of a record's image.
func ImageFilename(record *entities.ImageRecord) string {
	if record.Filename == "" {
		return fmt.Sprintf("image_%d.png", record.Timestamp)
	}

	return record.Filename + ".png"
}

// DecodeImage decodes the stored payload of a record.
func DecodeImage(record *entities.ImageRecord) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(record.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("decoding image of record %s: %w", record.ID, err)
	}

	return data, nil
}

// WithParameters returns the decoded image of record with its generation
// parameters embedded when the payload is a PNG.
func WithParameters(record *entities.ImageRecord) ([]byte, error) {
	data, err := DecodeImage(record)
	if err != nil {
		return nil, err
	}

	text := png_metadata.FormatParameters(entities.OptionsFromRecord(*record))

	tagged, err := png_metadata.WriteParameters(data, text)
	if err != nil {
		log.Printf("Error embedding parameters in %s, exporting as is: %v", record.ID, err)

		return data, nil
	}

	return tagged, nil
}

// WriteArchive writes a zip with one PNG per record. Names that would repeat
// get a _<n> suffix before the extension.
func WriteArchive(w io.Writer, records []*entities.ImageRecord) error {
	zw := zip.NewWriter(w)
	used := make(map[string]int, len(records))

	for _, record := range records {
		data, err := WithParameters(record)
		if err != nil {
			zw.Close()

			return err
		}

		name := uniqueName(used, ImageFilename(record))

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     path.Join(archiveFolder, name),
			Method:   zip.Deflate,
			Modified: time.UnixMilli(record.Timestamp),
		})
		if err != nil {
			zw.Close()

			return err
		}

		if _, err := entry.Write(data); err != nil {
			zw.Close()

			return err
		}
	}

	return zw.Close()
}

func uniqueName(used map[string]int, name string) string {
	key := strings.ToLower(name)

	count := used[key]
	used[key] = count + 1

	if count == 0 {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := count; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			used[strings.ToLower(candidate)] = 1
			used[key] = n + 1

			return candidate
		}
	}
}
