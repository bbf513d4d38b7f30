package png_metadata

import (
	"bytes"
	"errors"
	"log"
	"strings"
)

const parametersKeyword = "parameters"

var ErrNotPNG = errors.New("wrong PNG header")

// Info is what a PNG carries about its generation.
type Info struct {
	Header     Header
	Parameters string
}

// Read parses the chunk structure and extracts the parameters tEXt chunk.
// Parameters is empty when the image has none.
func Read(data []byte) (*Info, error) {
	chunks, header, err := readChunks(data)
	if err != nil {
		log.Printf("Error reading PNG: %v", err)

		return nil, err
	}

	info := &Info{Header: *header}

	for _, c := range chunks {
		if text, ok := parametersText(c); ok {
			info.Parameters = text
			break
		}
	}

	return info, nil
}

func parametersText(c *chunk) (string, bool) {
	if c.CType != "tEXt" {
		return "", false
	}

	keyword, text, found := strings.Cut(string(c.Data), "\x00")
	if !found || keyword != parametersKeyword {
		return "", false
	}

	return text, true
}

// WriteParameters returns a copy of data with text stored in a parameters tEXt
// chunk right after IHDR. An existing parameters chunk is replaced.
func WriteParameters(data []byte, text string) ([]byte, error) {
	chunks, _, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(data)+len(text)+len(parametersKeyword)+13))
	out.WriteString(pngHeader)

	textChunk := &chunk{
		CType: "tEXt",
		Data:  append([]byte(parametersKeyword+"\x00"), text...),
	}

	for i, c := range chunks {
		if _, isParameters := parametersText(c); isParameters {
			continue
		}

		c.writeTo(out)

		if i == 0 {
			textChunk.writeTo(out)
		}
	}

	return out.Bytes(), nil
}
