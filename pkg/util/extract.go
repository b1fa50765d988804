package util

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rs/zerolog/log"
)

// Extract writes content to pathname, executed as a text/template against data
// when data is not nil. The file is replaced atomically and left alone when its
// content would not change.
func Extract(pathname string, content []byte, data any) error {
	name := filepath.Base(pathname)

	rendered := content
	if data != nil {
		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return fmt.Errorf("unable to parse %s template: %w", name, err)
		}

		var buf bytes.Buffer
		err = tmpl.Execute(&buf, data)
		if err != nil {
			return fmt.Errorf("unable to execute %s template: %w", name, err)
		}

		rendered = buf.Bytes()
	}

	existing, err := os.ReadFile(pathname)
	if err == nil && bytes.Equal(existing, rendered) {
		log.Debug().Str("path", pathname).Msg("unchanged")
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(pathname), "."+name+".*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(rendered)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("unable to write %s content: %w", name, err)
	}

	err = os.Chmod(tmp.Name(), 0644)
	if err != nil {
		return fmt.Errorf("unable to chmod %s: %w", name, err)
	}

	err = os.Rename(tmp.Name(), pathname)
	if err != nil {
		return fmt.Errorf("unable to replace %s: %w", pathname, err)
	}

	log.Debug().Str("path", pathname).Msg("updated")
	return nil
}
