package apk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CommandDeserializer runs an external helper command to decode a
// serialized asset stream. The stream is spooled to a temporary file whose
// path is appended to the command arguments; the helper prints a JSON array
// of objects on stdout.
type CommandDeserializer struct {
	command []string
}

// NewCommandDeserializer creates a CommandDeserializer for the given helper
// command line
func NewCommandDeserializer(command []string) (*CommandDeserializer, error) {
	if len(command) == 0 {
		return nil, errors.New("empty deserializer command")
	}

	return &CommandDeserializer{command: command}, nil
}

// Parse implements Deserializer
func (c *CommandDeserializer) Parse(ctx context.Context, r io.Reader) ([]Object, error) {
	tmp, err := os.CreateTemp("", "apphashd-asset-*")
	if err != nil {
		return nil, fmt.Errorf("create temporary asset file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			log.Warnf("error removing temporary asset file %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("spool asset stream: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temporary asset file: %w", err)
	}

	args := append(append([]string{}, c.command[1:]...), tmp.Name())
	cmd := exec.CommandContext(ctx, c.command[0], args...)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("deserializer %s: %w: %s", c.command[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("deserializer %s: %w", c.command[0], err)
	}

	var objects []Object
	if err := json.Unmarshal(out, &objects); err != nil {
		return nil, fmt.Errorf("decode deserializer output: %w", err)
	}

	return objects, nil
}
