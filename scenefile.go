package arbor

import (
	"fmt"
	"io"
	"reflect"

	"github.com/pelletier/go-toml/v2"
)

// sceneEntry is the TOML shape of one scene node.
type sceneEntry struct {
	Type     string         `toml:"type"`
	Name     string         `toml:"name"`
	Mode     string         `toml:"mode,omitempty"`
	Owner    bool           `toml:"owner,omitempty"`
	Fields   map[string]any `toml:"fields,omitempty"`
	Children []sceneEntry   `toml:"children,omitempty"`
}

// sceneFile is the document root, so files start with a [scene] table.
type sceneFile struct {
	Scene sceneEntry `toml:"scene"`
}

// Save writes the scene as TOML. Each node stores its registered type
// name, node name, process mode, owner flag, and exported scalar fields
// (bools, integers, floats, strings; tag a field `toml:"-"` to keep it
// out). Nodes of unregistered types cannot be saved.
func (s *Scene) Save(w io.Writer, reg *Registry) error {
	root, err := encodeScene(s, reg)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(w).Encode(sceneFile{Scene: root}); err != nil {
		return fmt.Errorf("encode scene file: %w", err)
	}
	return nil
}

// LoadScene reads a TOML scene written by Save, constructing each node
// through the registry. Every entry in the result is flagged from-disk, so
// its nodes run Loaded before their first Ready when instanced. Unknown
// field names in the file are ignored; an unregistered type name fails
// with ErrUnknownType.
func LoadScene(r io.Reader, reg *Registry) (*Scene, error) {
	var file sceneFile
	if err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode scene file: %w", err)
	}
	s, err := decodeScene(&file.Scene, reg)
	if err != nil {
		return nil, err
	}
	s.isOwner = true
	return s, nil
}

func encodeScene(s *Scene, reg *Registry) (sceneEntry, error) {
	b := s.instance.Base()
	typeName, ok := reg.NameOf(s.instance)
	if !ok {
		return sceneEntry{}, fmt.Errorf("save node %q: %w: no registered name for %s",
			b.name, ErrUnknownType, nodeTypeName(s.instance))
	}

	entry := sceneEntry{
		Type:   typeName,
		Name:   b.name,
		Owner:  s.isOwner,
		Fields: scalarFields(s.instance),
	}
	if b.mode != ModeInherit {
		entry.Mode = b.mode.String()
	}
	for _, child := range s.children {
		ce, err := encodeScene(child, reg)
		if err != nil {
			return sceneEntry{}, err
		}
		entry.Children = append(entry.Children, ce)
	}
	return entry, nil
}

func decodeScene(entry *sceneEntry, reg *Registry) (*Scene, error) {
	n, err := reg.New(entry.Type)
	if err != nil {
		return nil, fmt.Errorf("load node %q: %w", entry.Name, err)
	}
	b := n.Base()
	if entry.Name != "" {
		b.name = entry.Name
	}
	if entry.Mode != "" {
		mode, err := parseProcessMode(entry.Mode)
		if err != nil {
			return nil, fmt.Errorf("load node %q: %w", entry.Name, err)
		}
		b.mode = mode
	}
	applyScalarFields(n, entry.Fields)

	s := &Scene{instance: n, fromDisk: true, isOwner: entry.Owner}
	for i := range entry.Children {
		child, err := decodeScene(&entry.Children[i], reg)
		if err != nil {
			return nil, err
		}
		s.children = append(s.children, child)
	}
	return s, nil
}

func parseProcessMode(s string) (ProcessMode, error) {
	switch s {
	case "Inherit":
		return ModeInherit, nil
	case "Always":
		return ModeAlways, nil
	case "Pausable":
		return ModePausable, nil
	case "Inverse":
		return ModeInverse, nil
	default:
		return ModeInherit, fmt.Errorf("unknown process mode %q", s)
	}
}

// scalarFields collects the node's persistable payload: top-level exported
// fields of scalar kind. Embedded structs (the node record included) and
// anything tagged `toml:"-"` stay out.
func scalarFields(n Node) map[string]any {
	v := reflect.ValueOf(n).Elem()
	t := v.Type()
	var m map[string]any
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || f.PkgPath != "" || f.Tag.Get("toml") == "-" {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
			if m == nil {
				m = make(map[string]any)
			}
			m[f.Name] = v.Field(i).Interface()
		}
	}
	return m
}

// applyScalarFields writes decoded values back onto the node. TOML hands
// numbers over as int64 or float64; both are accepted for any numeric
// field. Mismatched or unknown names are skipped.
func applyScalarFields(n Node, fields map[string]any) {
	if len(fields) == 0 {
		return
	}
	v := reflect.ValueOf(n).Elem()
	t := v.Type()
	for name, raw := range fields {
		sf, ok := t.FieldByName(name)
		if !ok || sf.Anonymous || sf.Tag.Get("toml") == "-" {
			continue
		}
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.Bool:
			if b, ok := raw.(bool); ok {
				f.SetBool(b)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			switch num := raw.(type) {
			case int64:
				f.SetInt(num)
			case float64:
				f.SetInt(int64(num))
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			switch num := raw.(type) {
			case int64:
				if num >= 0 {
					f.SetUint(uint64(num))
				}
			case float64:
				if num >= 0 {
					f.SetUint(uint64(num))
				}
			}
		case reflect.Float32, reflect.Float64:
			switch num := raw.(type) {
			case int64:
				f.SetFloat(float64(num))
			case float64:
				f.SetFloat(num)
			}
		case reflect.String:
			if str, ok := raw.(string); ok {
				f.SetString(str)
			}
		}
	}
}
