package handler

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// WordCount is a reference handler: count words and lines in the file
// named by payload["file_path"].
func WordCount(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	path, _ := payload["file_path"].(string)
	if path == "" {
		return nil, fmt.Errorf("word_count handler: missing file_path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("word_count handler: %w", err)
	}
	defer f.Close()

	var lines, words, chars int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		line := scanner.Text()
		lines++
		chars += len(line) + 1
		inWord := false
		for _, r := range line {
			if r == ' ' || r == '\t' {
				inWord = false
				continue
			}
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("word_count handler: %w", err)
	}

	return map[string]interface{}{
		"lines": lines,
		"words": words,
		"chars": chars,
	}, nil
}
