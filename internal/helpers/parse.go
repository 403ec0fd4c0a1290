package helpers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/opscinema/cinectl/internal/rpc"
)

// recognitionRecord is the helper's wire shape for one text block.
type recognitionRecord struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
}

// ParseRecognitionOutput decodes the helper's line-delimited JSON output
// into ordered blocks. Blank lines are skipped; a malformed line fails the
// whole parse since partial recognition output cannot be trusted.
func ParseRecognitionOutput(out []byte) ([]rpc.OcrBlock, error) {
	var blocks []rpc.OcrBlock
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec recognitionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("recognition output line %d: %w", lineNo, err)
		}
		if rec.Confidence < 0 || rec.Confidence > 1 {
			return nil, fmt.Errorf("recognition output line %d: confidence %v out of range", lineNo, rec.Confidence)
		}
		blocks = append(blocks, rpc.OcrBlock{
			OcrBlockID: fmt.Sprintf("blk-%d", lineNo),
			Text:       rec.Text,
			Confidence: rec.Confidence,
			BBoxNorm:   rpc.BBoxNorm{X: rec.X, Y: rec.Y, W: rec.W, H: rec.H},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading recognition output: %w", err)
	}
	return blocks, nil
}
