package service

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sql-orchestrator/internal/db"
)

// QueryKey is the row value holding the command text of Text commands.
const QueryKey = "Query"

// ServiceData is one batch request. Commands run in the order they appear.
type ServiceData struct {
	ServiceName      string   `json:"serviceName" yaml:"serviceName"`
	TransactionScope bool     `json:"transactionScope" yaml:"transactionScope"`
	Commands         Commands `json:"commands" yaml:"commands"`
}

type Command struct {
	ConnectionName string           `json:"connectionName" yaml:"connectionName"`
	CommandType    db.CommandType   `json:"commandType,omitempty" yaml:"commandType,omitempty"`
	CommandText    string           `json:"commandText,omitempty" yaml:"commandText,omitempty"`
	Parameters     Parameters       `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Values         []map[string]any `json:"values" yaml:"values"`
}

// Parameter describes a parameter shape. A non-empty TargetCommandName
// forwards the captured output value to a later command's parameter.
type Parameter struct {
	DbType              db.DbType `json:"dbType" yaml:"dbType"`
	Size                int       `json:"size,omitempty" yaml:"size,omitempty"`
	TargetCommandName   string    `json:"targetCommandName,omitempty" yaml:"targetCommandName,omitempty"`
	TargetParameterName string    `json:"targetParameterName,omitempty" yaml:"targetParameterName,omitempty"`
}

func (p Parameter) Forwards() bool {
	return p.TargetCommandName != ""
}

// Value returns the row's value for name, or nil when the row or the name is
// absent.
func (c *Command) Value(name string, row int) any {
	if row < 0 || row >= len(c.Values) {
		return nil
	}
	return c.Values[row][name]
}

type NamedCommand struct {
	Name    string
	Command *Command
}

// Commands is an ordered command set. Names are unique.
type Commands []NamedCommand

func (cs Commands) Get(name string) (*Command, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c.Command, true
		}
	}
	return nil, false
}

func (cs Commands) Has(name string) bool {
	_, ok := cs.Get(name)
	return ok
}

// ConnectionNames lists the distinct connection names in first-reference
// order.
func (cs Commands) ConnectionNames() []string {
	seen := make(map[string]struct{}, len(cs))
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.Command == nil {
			continue
		}
		name := c.Command.ConnectionName
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (cs Commands) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.Command)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cs *Commands) UnmarshalJSON(b []byte) error {
	*cs = nil
	return decodeOrderedObject(b, func(key string, raw json.RawMessage) error {
		if cs.Has(key) {
			return errors.Errorf("duplicate command %q", key)
		}
		var c Command
		if err := decodeJSON(raw, &c); err != nil {
			return errors.Wrapf(err, "command %q", key)
		}
		*cs = append(*cs, NamedCommand{Name: key, Command: &c})
		return nil
	})
}

func (cs *Commands) UnmarshalYAML(n *yaml.Node) error {
	*cs = nil
	if n.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: commands must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if cs.Has(key) {
			return errors.Errorf("duplicate command %q", key)
		}
		var c Command
		if err := n.Content[i+1].Decode(&c); err != nil {
			return errors.Wrapf(err, "command %q", key)
		}
		*cs = append(*cs, NamedCommand{Name: key, Command: &c})
	}
	return nil
}

type NamedParameter struct {
	Name      string
	Parameter Parameter
}

// Parameters keeps declaration order, which positional drivers depend on.
type Parameters []NamedParameter

func (ps Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Parameter)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ps *Parameters) UnmarshalJSON(b []byte) error {
	*ps = nil
	return decodeOrderedObject(b, func(key string, raw json.RawMessage) error {
		var p Parameter
		if err := decodeJSON(raw, &p); err != nil {
			return errors.Wrapf(err, "parameter %q", key)
		}
		*ps = append(*ps, NamedParameter{Name: key, Parameter: p})
		return nil
	})
}

func (ps *Parameters) UnmarshalYAML(n *yaml.Node) error {
	*ps = nil
	if n.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: parameters must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		var p Parameter
		if err := n.Content[i+1].Decode(&p); err != nil {
			return errors.Wrapf(err, "parameter %q", n.Content[i].Value)
		}
		*ps = append(*ps, NamedParameter{Name: n.Content[i].Value, Parameter: p})
	}
	return nil
}

// decodeOrderedObject walks a JSON object and calls fn per member in
// document order.
func decodeOrderedObject(b []byte, fn func(key string, raw json.RawMessage) error) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("expected an object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// decodeJSON decodes numbers as json.Number so integer values survive.
func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// DecodeJSON reads one ServiceData document from r.
func DecodeJSON(r io.Reader) (*ServiceData, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var data ServiceData
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}

	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("extra data after request")
	}

	return &data, nil
}

// DecodeYAML reads one ServiceData document from b.
func DecodeYAML(b []byte) (*ServiceData, error) {
	var data ServiceData
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
