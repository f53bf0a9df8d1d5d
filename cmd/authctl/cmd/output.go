// file: cmd/authctl/cmd/output.go
package cmd

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// printer writes values in one output format. JSON is one object per line,
// YAML is one document per value.
type printer struct {
	w       io.Writer
	format  string
	yamlEnc *yaml.Encoder
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unsupported output format %q (must be text, json or yaml)", format)
	}
	return &printer{w: w, format: format}, nil
}

// print writes v, or text in text mode
func (p *printer) print(v any, text string) error {
	switch p.format {
	case formatJSON:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		_, err = p.w.Write(append(data, '\n'))
		return err
	case formatYAML:
		if p.yamlEnc == nil {
			p.yamlEnc = yaml.NewEncoder(p.w)
			p.yamlEnc.SetIndent(2)
		}
		if err := p.yamlEnc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return nil
	default:
		_, err := fmt.Fprintln(p.w, text)
		return err
	}
}

func (p *printer) close() error {
	if p.yamlEnc != nil {
		return p.yamlEnc.Close()
	}
	return nil
}
