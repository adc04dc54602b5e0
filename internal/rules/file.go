package rules

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

type fileColumn struct {
	No       int    `yaml:"no"`
	Output   string `yaml:"output"`
	Source   string `yaml:"source,omitempty"`
	Action   string `yaml:"action"`
	Argument string `yaml:"argument,omitempty"`
}

type fileRuleSet struct {
	Name    string       `yaml:"name"`
	Columns []fileColumn `yaml:"columns"`
}

type fileDocument struct {
	RuleSets []fileRuleSet `yaml:"rule_sets"`
}

// Decode reads a rules YAML document into a new store.
func Decode(r io.Reader) (*Store, error) {
	var doc fileDocument
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewStore(), nil
		}
		return nil, errors.Errorf("parsing rules YAML: %w", err)
	}

	store := NewStore()
	for i, fs := range doc.RuleSets {
		name := strings.TrimSpace(fs.Name)
		if name == "" {
			return nil, errors.Errorf("rule set #%d has no name", i+1)
		}
		if _, dup := store.Get(name); dup {
			return nil, errors.Errorf("rule set %q defined twice", name)
		}

		set := make(RuleSet, 0, len(fs.Columns))
		for j, fc := range fs.Columns {
			seq := fc.No
			if seq == 0 {
				seq = j + 1
			}
			set = append(set, ColumnSpec{
				Sequence:     seq,
				OutputName:   fc.Output,
				SourceColumn: fc.Source,
				Action:       ParseAction(fc.Action),
				Argument:     fc.Argument,
			})
		}
		store.Put(name, set)
	}
	return store, nil
}

// Encode writes every rule set in the store as a YAML document.
func Encode(w io.Writer, s *Store) error {
	var doc fileDocument
	for _, name := range s.Names() {
		set, _ := s.Get(name)
		fs := fileRuleSet{Name: name, Columns: make([]fileColumn, 0, len(set))}
		for _, c := range set {
			fs.Columns = append(fs.Columns, fileColumn{
				No:       c.Sequence,
				Output:   c.OutputName,
				Source:   c.SourceColumn,
				Action:   c.Action.String(),
				Argument: c.Argument,
			})
		}
		doc.RuleSets = append(doc.RuleSets, fs)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return errors.Errorf("encoding rules YAML: %w", err)
	}
	return encoder.Close()
}

// ReadFile loads a rules file.
func ReadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading rules file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// WriteFile replaces path with the store's YAML form.
func WriteFile(path string, s *Store) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Errorf("writing rules file: %w", err)
	}
	return nil
}
