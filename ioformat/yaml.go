package ioformat

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/mauricelam/pyolin/record"
)

// yamlPrinter renders the normalized result as a YAML document. Like
// the json printer it buffers the full value first.
type yamlPrinter struct{}

func (yamlPrinter) Print(w io.Writer, result any, _ PrintConfig) error {
	if record.IsSkipped(result) {
		return nil
	}

	value, err := normalize(result)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
