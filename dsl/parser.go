// Package dsl 解析海报脚本，并把其中的绘制项编译为 layout.Descriptor。
//
//	poster Demo {
//	  background: #ffffff
//	  preload: ["https://cdn.example.com/a.png"]
//	  image { src: "https://cdn.example.com/a.png" x: 0 y: 0 width: 750 height: 750 radius: "0 0 24 24" }
//	  text  { text: "Hello ${user.name}" x: 40 y: 820 width: 670 fontSize: 32 color: #333 baseLine: top }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{4}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)(?:rpx|px)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
		participle.UseLookahead(2),
	)
)

// Document 是海报脚本的根节点。
type Document struct {
	Pos        lexer.Position `parser:"" json:"-"`
	Name       string         `parser:"Newline* 'poster' @Ident"`
	Statements []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement 是顶层的属性赋值或绘制项。
type Statement struct {
	Item       *ItemBlock  `parser:"  @@"`
	Assignment *Assignment `parser:"| @@"`
}

// ItemBlock 描述一个绘制项，Kind 为 image / shape / text。
type ItemBlock struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Kind    string         `parser:"@Ident"`
	Entries []*Assignment  `parser:"'{' Newline* ( @@ ( ';' | ',' | Newline )* )* '}'"`
}

// Assignment 使用冒号语法（key: value）。
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value 是属性值：字符串、数字、颜色、标识符或数组。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *Number        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
	Array  *ArrayValue    `parser:"| @@"`
}

// ArrayValue 对应 `[ ... ]`，元素之间用逗号、分号或换行分隔。
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? ','? Newline* ']'"`
}

// StringLiteral 在捕获时去掉引号并处理转义。
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Number 是设计单位数值，可带 rpx 后缀。px 依赖屏幕宽度，脚本中不接受。
type Number float64

// Capture implements participle.Capture.
func (n *Number) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("number capture requires value")
	}
	raw := values[0]
	if strings.HasSuffix(raw, "px") && !strings.HasSuffix(raw, "rpx") {
		return fmt.Errorf("数字 %q 不支持 px 单位，请使用设计单位 rpx", raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "rpx"), 64)
	if err != nil {
		return fmt.Errorf("数字 %q 无法解析: %w", raw, err)
	}
	*n = Number(v)
	return nil
}

// Interface 把属性值转换为 JSON 兼容的 Go 值。
func (v *Value) Interface() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return float64(*v.Number)
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		switch *v.Ident {
		case "true":
			return true
		case "false":
			return false
		case "null":
			return nil
		}
		return *v.Ident
	case v.Array != nil:
		out := make([]any, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			out = append(out, item.Interface())
		}
		return out
	default:
		return nil
	}
}

// Text 返回字符串形式的值，数组返回 false。
func (v *Value) Text() (string, bool) {
	switch x := v.Interface().(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// Parse parses DSL content from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses DSL content from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}
