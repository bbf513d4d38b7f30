package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"pixel_forge/entities"
	"pixel_forge/png_metadata"
)

func encodedPNG(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestUniqueNameNumbersDuplicatesFromOne(t *testing.T) {
	used := make(map[string]int)

	got := []string{}
	for _, name := range []string{"Fox.png", "fox.png", "Fox.png", "Fox_2.png"} {
		got = append(got, uniqueName(used, name))
	}

	want := []string{"Fox.png", "fox_1.png", "Fox_2.png", "Fox_2_1.png"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestWriteArchiveNamesAndTagsEntries(t *testing.T) {
	payload := encodedPNG(t)

	records := []*entities.ImageRecord{
		{ID: "a", Timestamp: 1_700_000_000_000, Prompt: "a fox", Style: ", anime style", Filename: "Neon_Fox", ImageBase64: payload},
		{ID: "b", Timestamp: 1_700_000_000_000, Prompt: "a fox", Filename: "Neon_Fox", ImageBase64: payload},
		{ID: "c", Timestamp: 123, Prompt: "untitled", ImageBase64: payload},
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, records); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	want := []string{
		"PixelForge_Images/Neon_Fox.png",
		"PixelForge_Images/Neon_Fox_1.png",
		"PixelForge_Images/image_123.png",
	}

	if len(reader.File) != len(want) {
		t.Fatalf("archive has %d entries, want %d", len(reader.File), len(want))
	}

	for i, file := range reader.File {
		if file.Name != want[i] {
			t.Errorf("entry %d = %s, want %s", i, file.Name, want[i])
		}
	}

	entry, err := reader.File[0].Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer entry.Close()

	data, err := io.ReadAll(entry)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	info, err := png_metadata.Read(data)
	if err != nil {
		t.Fatalf("png_metadata.Read: %v", err)
	}

	if !strings.HasPrefix(info.Parameters, "a fox") {
		t.Fatalf("parameters = %q", info.Parameters)
	}
}

func TestWriteArchiveKeepsNonPNGPayloads(t *testing.T) {
	raw := []byte("\xff\xd8\xffjpeg bytes")

	records := []*entities.ImageRecord{
		{ID: "j", Filename: "photo", ImageBase64: base64.StdEncoding.EncodeToString(raw)},
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, records); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}

	entry, _ := reader.File[0].Open()
	defer entry.Close()

	data, _ := io.ReadAll(entry)
	if !bytes.Equal(data, raw) {
		t.Fatalf("payload changed: %q", data)
	}
}

func TestWriteArchiveRejectsBadPayload(t *testing.T) {
	records := []*entities.ImageRecord{{ID: "x", ImageBase64: "%%%"}}

	if err := WriteArchive(io.Discard, records); err == nil {
		t.Fatal("expected an error for an undecodable payload")
	}
}

func TestArchiveNames(t *testing.T) {
	group := []*entities.ImageRecord{{Filename: "Castle_Dusk-1"}, {Filename: "Castle_Dusk-2"}}

	if got := GroupArchiveName(group); got != "Castle_Dusk.zip" {
		t.Fatalf("GroupArchiveName = %s", got)
	}

	if got := GroupArchiveName([]*entities.ImageRecord{{}}); got != "pixelforge-variations.zip" {
		t.Fatalf("GroupArchiveName without filename = %s", got)
	}

	if got := MetadataFilename(&entities.ImageRecord{}); got != "pixelforge-metadata.json" {
		t.Fatalf("MetadataFilename = %s", got)
	}
}

func TestFormatGenerationTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "N/A"},
		{850, "850ms"},
		{1000, "1.0s"},
		{12_345, "12.3s"},
		{60_000, "1m 0s"},
		{125_900, "2m 5s"},
	}

	for _, test := range tests {
		if got := FormatGenerationTime(test.ms); got != test.want {
			t.Errorf("FormatGenerationTime(%d) = %s, want %s", test.ms, got, test.want)
		}
	}
}

func TestMetadataForSingleAndVariation(t *testing.T) {
	single := &entities.ImageRecord{ID: "s", Timestamp: 0, Prompt: "p", Filename: "f"}

	var buf bytes.Buffer
	if err := WriteMetadata(&buf, single, 1); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, field := range []string{"generationTime", "groupId", "variationIndex", "totalVariations"} {
		value, ok := decoded[field]
		if !ok || value != nil {
			t.Errorf("%s = %v, want null", field, value)
		}
	}

	if decoded["timestamp"] != "1970-01-01T00:00:00.000Z" {
		t.Errorf("timestamp = %v", decoded["timestamp"])
	}

	grouped := &entities.ImageRecord{
		ID:               "v",
		GenerationTimeMs: 2500,
		Variation:        &entities.Variation{GroupID: "g", Index: 2},
	}

	metadata := MetadataFor(grouped, 3)
	if *metadata.GroupID != "g" || *metadata.VariationIndex != 2 || *metadata.TotalVariations != 3 {
		t.Fatalf("variation metadata = %+v", metadata)
	}

	if *metadata.GenerationTime != "2.5s" {
		t.Fatalf("generationTime = %s", *metadata.GenerationTime)
	}
}

type fakeBucket struct {
	mu      sync.Mutex
	puts    map[string][]byte
	methods []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.methods = append(b.methods, r.Method+" "+r.URL.Path)
	if r.Method == http.MethodPut {
		b.puts[r.URL.Path] = body
	}
	b.mu.Unlock()

	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func TestUploaderPutsAndPresigns(t *testing.T) {
	bucket := &fakeBucket{puts: make(map[string][]byte)}
	server := httptest.NewServer(bucket)
	defer server.Close()

	uploader, err := NewUploader(UploaderConfig{
		Host:      strings.TrimPrefix(server.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewUploader: %v", err)
	}

	if err := uploader.CheckBucket(context.Background()); err != nil {
		t.Fatalf("CheckBucket: %v", err)
	}

	upload, err := uploader.Upload(context.Background(), "exports/batch.zip", []byte("zip bytes"), "application/zip")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if upload.Key != "exports/batch.zip" || !strings.Contains(upload.URL, "/images/exports/batch.zip") {
		t.Fatalf("upload = %+v", upload)
	}

	if !strings.Contains(upload.URL, "X-Amz-Signature") {
		t.Fatalf("URL is not presigned: %s", upload.URL)
	}

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	if _, ok := bucket.puts["/images/exports/batch.zip"]; !ok {
		t.Fatalf("no PUT recorded, saw %v", bucket.methods)
	}
}

func TestNewUploaderValidatesConfig(t *testing.T) {
	if _, err := NewUploader(UploaderConfig{Bucket: "b"}); err == nil {
		t.Fatal("expected error for missing host")
	}

	if _, err := NewUploader(UploaderConfig{Host: "localhost:9000"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
