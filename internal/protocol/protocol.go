// Package protocol 描述被跟踪指令的静态知识：方法 ID、账户角色与参数布局。
// 全部来自声明式 YAML，新增指令类型不需要改动解码逻辑。
package protocol

import (
	"fmt"
	"strings"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/types"
)

type ArgType string

const (
	ArgString ArgType = "string"
	ArgPubkey ArgType = "pubkey"
	ArgU8     ArgType = "u8"
	ArgU64    ArgType = "u64"
	ArgBool   ArgType = "bool"
)

func (t ArgType) valid() bool {
	switch t {
	case ArgString, ArgPubkey, ArgU8, ArgU64, ArgBool:
		return true
	}
	return false
}

// Role 指令账户列表中某个位置的语义名称
type Role struct {
	Name  string `yaml:"name"`
	Index int    `yaml:"index"`
}

// Arg 参数区按编码顺序排列的一个字段
type Arg struct {
	Name string  `yaml:"name"`
	Type ArgType `yaml:"type"`
}

type SeedSource int

const (
	SeedText SeedSource = iota
	SeedRole
	SeedArg
	SeedKey
)

func (s SeedSource) String() string {
	switch s {
	case SeedText:
		return "text"
	case SeedRole:
		return "role"
	case SeedArg:
		return "arg"
	case SeedKey:
		return "key"
	}
	return "unknown"
}

// Seed PDA 派生时的一个种子
type Seed struct {
	Source SeedSource
	Value  string       // text 字面量，或 role / arg 名称
	Key    types.Pubkey // 仅 SeedKey
}

// DerivedRole 在已解析角色与参数之上派生的 PDA 地址
type DerivedRole struct {
	Name    string
	Program types.Pubkey
	Seeds   []Seed
}

// EventSpec 指令通过 self-CPI 发出的 Anchor 事件
type EventSpec struct {
	Discriminator [consts.DiscriminatorSize]byte
}

// Kind 分发表中的一行
type Kind struct {
	Name          string
	Discriminator [consts.DiscriminatorSize]byte
	ProgramID     *types.Pubkey // 为空表示不限制程序
	Roles         []Role
	Args          []Arg
	Derived       []DerivedRole
	Event         *EventSpec
}

func (k *Kind) arg(name string) (Arg, bool) {
	for _, a := range k.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

func (k *Kind) hasRole(name string) bool {
	for _, r := range k.Roles {
		if r.Name == name {
			return true
		}
	}
	for _, d := range k.Derived {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Table 以方法 ID 为键的只读分发表，加载后不再修改，可并发读取
type Table struct {
	kinds  []*Kind
	byDisc map[[consts.DiscriminatorSize]byte]*Kind
}

func NewTable(kinds []*Kind) (*Table, error) {
	t := &Table{
		kinds:  make([]*Kind, 0, len(kinds)),
		byDisc: make(map[[consts.DiscriminatorSize]byte]*Kind, len(kinds)),
	}
	names := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		if k == nil {
			continue
		}
		if _, dup := names[k.Name]; dup {
			return nil, fmt.Errorf("duplicate kind name %q", k.Name)
		}
		if prev, dup := t.byDisc[k.Discriminator]; dup {
			return nil, fmt.Errorf("kind %q reuses discriminator of %q", k.Name, prev.Name)
		}
		names[k.Name] = struct{}{}
		t.byDisc[k.Discriminator] = k
		t.kinds = append(t.kinds, k)
	}
	if len(t.kinds) == 0 {
		return nil, fmt.Errorf("protocol table is empty")
	}
	return t, nil
}

// Lookup 按 8 字节方法 ID 查表
func (t *Table) Lookup(disc [consts.DiscriminatorSize]byte) (*Kind, bool) {
	k, ok := t.byDisc[disc]
	return k, ok
}

func (t *Table) Kinds() []*Kind {
	return t.kinds
}

// ProgramIDs 返回配置中出现的程序地址（去重，保持声明顺序），用于订阅过滤
func (t *Table) ProgramIDs() []string {
	seen := make(map[types.Pubkey]struct{})
	var out []string
	for _, k := range t.kinds {
		if k.ProgramID == nil {
			continue
		}
		if _, ok := seen[*k.ProgramID]; ok {
			continue
		}
		seen[*k.ProgramID] = struct{}{}
		out = append(out, k.ProgramID.String())
	}
	return out
}

func (t *Table) String() string {
	names := make([]string, len(t.kinds))
	for i, k := range t.kinds {
		names[i] = k.Name
	}
	return strings.Join(names, ",")
}
