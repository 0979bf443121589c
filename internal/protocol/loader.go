package protocol

import (
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/types"
)

//go:embed pumpfun.yaml
var defaultProtocol []byte

type fileSpec struct {
	Kinds []kindSpec `yaml:"kinds"`
}

type kindSpec struct {
	Name          string        `yaml:"name"`
	Discriminator string        `yaml:"discriminator"`
	ProgramID     string        `yaml:"program_id"`
	Roles         []Role        `yaml:"roles"`
	Args          []Arg         `yaml:"args"`
	Derived       []derivedSpec `yaml:"derived"`
	Event         *eventSpec    `yaml:"event"`
}

type derivedSpec struct {
	Name    string     `yaml:"name"`
	Program string     `yaml:"program"`
	Seeds   []seedSpec `yaml:"seeds"`
}

type seedSpec struct {
	Text *string `yaml:"text"`
	Role string  `yaml:"role"`
	Arg  string  `yaml:"arg"`
	Key  string  `yaml:"key"`
}

type eventSpec struct {
	Discriminator string `yaml:"discriminator"`
}

// Default 内置的 pump.fun create 协议表
func Default() *Table {
	t, err := Parse(defaultProtocol)
	if err != nil {
		panic(fmt.Sprintf("embedded protocol is invalid: %v", err))
	}
	return t
}

// Load 读取协议文件；path 为空时使用内置协议
func Load(path string) (*Table, error) {
	if path == "" {
		return Parse(defaultProtocol)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read protocol file %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("protocol file %s: %w", path, err)
	}
	return t, nil
}

func Parse(data []byte) (*Table, error) {
	var f fileSpec
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	kinds := make([]*Kind, 0, len(f.Kinds))
	for i := range f.Kinds {
		k, err := f.Kinds[i].compile()
		if err != nil {
			return nil, fmt.Errorf("kinds[%d]: %w", i, err)
		}
		kinds = append(kinds, k)
	}
	return NewTable(kinds)
}

func (s *kindSpec) compile() (*Kind, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	disc, err := parseDiscriminator(s.Discriminator)
	if err != nil {
		return nil, fmt.Errorf("kind %s: %w", s.Name, err)
	}
	k := &Kind{
		Name:          s.Name,
		Discriminator: disc,
		Roles:         s.Roles,
		Args:          s.Args,
	}
	if s.ProgramID != "" {
		p, err := types.TryPubkeyFromBase58(s.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("kind %s: program_id: %w", s.Name, err)
		}
		k.ProgramID = &p
	}

	seen := make(map[string]struct{})
	for _, r := range k.Roles {
		if r.Name == "" || r.Index < 0 {
			return nil, fmt.Errorf("kind %s: invalid role %+v", s.Name, r)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("kind %s: duplicate role %q", s.Name, r.Name)
		}
		seen[r.Name] = struct{}{}
	}

	argNames := make(map[string]struct{})
	for _, a := range k.Args {
		if a.Name == "" {
			return nil, fmt.Errorf("kind %s: arg name is required", s.Name)
		}
		if !a.Type.valid() {
			return nil, fmt.Errorf("kind %s: arg %s has unknown type %q", s.Name, a.Name, a.Type)
		}
		if _, dup := argNames[a.Name]; dup {
			return nil, fmt.Errorf("kind %s: duplicate arg %q", s.Name, a.Name)
		}
		argNames[a.Name] = struct{}{}
	}

	for _, d := range s.Derived {
		dr, err := d.compile(k)
		if err != nil {
			return nil, fmt.Errorf("kind %s: derived %s: %w", s.Name, d.Name, err)
		}
		if _, dup := seen[dr.Name]; dup {
			return nil, fmt.Errorf("kind %s: duplicate role %q", s.Name, dr.Name)
		}
		seen[dr.Name] = struct{}{}
		k.Derived = append(k.Derived, dr)
	}

	if s.Event != nil {
		ed, err := parseDiscriminator(s.Event.Discriminator)
		if err != nil {
			return nil, fmt.Errorf("kind %s: event: %w", s.Name, err)
		}
		k.Event = &EventSpec{Discriminator: ed}
	}
	return k, nil
}

func (d *derivedSpec) compile(k *Kind) (DerivedRole, error) {
	if d.Name == "" {
		return DerivedRole{}, fmt.Errorf("name is required")
	}
	program, err := types.TryPubkeyFromBase58(d.Program)
	if err != nil {
		return DerivedRole{}, fmt.Errorf("program: %w", err)
	}
	if len(d.Seeds) == 0 {
		return DerivedRole{}, fmt.Errorf("at least one seed is required")
	}
	dr := DerivedRole{Name: d.Name, Program: program}
	for i, s := range d.Seeds {
		seed, err := s.compile(k)
		if err != nil {
			return DerivedRole{}, fmt.Errorf("seeds[%d]: %w", i, err)
		}
		dr.Seeds = append(dr.Seeds, seed)
	}
	return dr, nil
}

func (s *seedSpec) compile(k *Kind) (Seed, error) {
	set := 0
	for _, v := range []bool{s.Text != nil, s.Role != "", s.Arg != "", s.Key != ""} {
		if v {
			set++
		}
	}
	if set != 1 {
		return Seed{}, fmt.Errorf("exactly one of text/role/arg/key must be set")
	}

	switch {
	case s.Text != nil:
		if len(*s.Text) > 32 {
			return Seed{}, fmt.Errorf("text seed longer than 32 bytes")
		}
		return Seed{Source: SeedText, Value: *s.Text}, nil
	case s.Role != "":
		// 只能引用指令角色，派生角色之间不互相依赖
		for _, r := range k.Roles {
			if r.Name == s.Role {
				return Seed{Source: SeedRole, Value: s.Role}, nil
			}
		}
		return Seed{}, fmt.Errorf("unknown role %q", s.Role)
	case s.Arg != "":
		a, ok := k.arg(s.Arg)
		if !ok {
			return Seed{}, fmt.Errorf("unknown arg %q", s.Arg)
		}
		if a.Type != ArgPubkey {
			return Seed{}, fmt.Errorf("arg %q must be a pubkey", s.Arg)
		}
		return Seed{Source: SeedArg, Value: s.Arg}, nil
	default:
		p, err := types.TryPubkeyFromBase58(s.Key)
		if err != nil {
			return Seed{}, err
		}
		return Seed{Source: SeedKey, Value: s.Key, Key: p}, nil
	}
}

// parseDiscriminator 接受 16 位十六进制，或 "[24, 30, ...]" 形式的字节列表
func parseDiscriminator(s string) ([consts.DiscriminatorSize]byte, error) {
	var out [consts.DiscriminatorSize]byte
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		parts := strings.Split(strings.Trim(s, "[]"), ",")
		if len(parts) != consts.DiscriminatorSize {
			return out, fmt.Errorf("discriminator needs %d bytes, got %d", consts.DiscriminatorSize, len(parts))
		}
		for i, p := range parts {
			b, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return out, fmt.Errorf("discriminator byte %d: %w", i, err)
			}
			out[i] = uint8(b)
		}
		return out, nil
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, fmt.Errorf("discriminator: %w", err)
	}
	if len(raw) != consts.DiscriminatorSize {
		return out, fmt.Errorf("discriminator needs %d bytes, got %d", consts.DiscriminatorSize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}
