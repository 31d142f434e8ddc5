package openai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const doneSentinel = "[DONE]"

// streamChunk is the minimal shape of one server-sent event in a streamed
// completion.
type streamChunk struct {
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Stream is a finite, non-restartable sequence of reply fragments. Fragments
// are pulled synchronously with Recv; the stream ends with io.EOF once the
// server sends its [DONE] sentinel or closes the connection.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Stream{body: body, scanner: sc}
}

// Recv blocks until the next non-empty text fragment arrives and returns it.
// It returns io.EOF when the stream is exhausted; any other error is fatal to
// the request. Fragments arrive in order and each is returned exactly once.
func (s *Stream) Recv() (string, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == doneSentinel {
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("openai: decode stream chunk: %w", err)
		}
		// Role preambles and finish markers carry no content.
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("openai: read stream: %w", err)
	}
	return "", io.EOF
}

// Close releases the underlying connection. Safe to call after Recv returned
// io.EOF.
func (s *Stream) Close() error {
	return s.body.Close()
}
