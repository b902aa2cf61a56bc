package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/chtl/lang/token"
)

// Format writes n in canonical CHTL syntax to w. A positive indent places
// each item on its own line; zero writes everything on one line.
func (n *Node) Format(_ context.Context, w io.Writer, indent int) error {
	p := &printer{indent: indent}

	if n.Kind == KindRoot {
		p.items(n.Children)
	} else {
		p.node(n)
	}

	_, err := fmt.Fprintln(w, strings.TrimSpace(p.sb.String()))

	return err
}

// FormatJSON writes the tree rooted at n as JSON to w.
func (n *Node) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(n.ToMap(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(n.ToMap())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the tree rooted at n as YAML to w.
func (n *Node) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, n.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// printer renders syntax trees as CHTL source.
type printer struct {
	sb     strings.Builder
	indent int
	depth  int
}

func (p *printer) line(s string) {
	if p.indent > 0 {
		if p.sb.Len() > 0 {
			p.sb.WriteByte('\n')
		}

		p.sb.WriteString(strings.Repeat(" ", p.depth*p.indent))
	} else if p.sb.Len() > 0 {
		p.sb.WriteByte(' ')
	}

	p.sb.WriteString(s)
}

// block writes "head { children }", or "head {}" when there are none.
func (p *printer) block(head string, children []*Node) {
	if len(children) == 0 {
		p.line(head + " {}")

		return
	}

	p.line(head + " {")
	p.depth++
	p.items(children)
	p.depth--
	p.line("}")
}

// raw writes "head { content }" with content written verbatim.
func (p *printer) raw(head, content string) {
	if content = strings.TrimSpace(content); content == "" {
		p.line(head + " {}")

		return
	}

	p.line(head + " { " + content + " }")
}

func (p *printer) items(nodes []*Node) {
	for _, c := range nodes {
		p.node(c)
	}
}

func (p *printer) node(n *Node) {
	switch n.Kind {
	case KindRoot:
		p.items(n.Children)
	case KindElement:
		p.block(n.Name, n.Children)
	case KindText:
		p.line("text { " + strconv.Quote(n.Value) + " }")
	case KindAttribute:
		p.line(n.Name + ": " + strconv.Quote(n.Value) + ";")
	case KindStyleBlock:
		p.block("style", n.Children)
	case KindScriptBlock:
		p.raw("script", n.Value)
	case KindSelector:
		if n.Value != "" {
			p.raw(n.Selector.Text, n.Value)
		} else {
			p.block(n.Selector.Text, n.Children)
		}
	case KindProperty:
		p.property(n)
	case KindTemplate, KindCustom:
		marker := token.MarkTemplate
		if n.Kind == KindCustom {
			marker = token.MarkCustom
		}

		p.block(marker.String()+" "+n.Def.String()+" "+n.Name, n.Children)
	case KindOrigin:
		head := token.MarkOrigin.String() + " @" + n.OriginType
		if n.Name != "" {
			head += " " + n.Name
		}

		if len(n.Targets) > 0 {
			p.line(head + ";")
		} else {
			p.raw(head, n.Value)
		}
	case KindImport:
		p.line(importSpelling(n))
	case KindNamespace:
		name := n.Name
		if n.Parent != nil && n.Parent.Kind == KindNamespace {
			name = strings.TrimPrefix(name, n.Parent.Name+".")
		}

		p.block(token.MarkNamespace.String()+" "+name, n.Children)
	case KindConfiguration:
		p.configuration(n)
	case KindInheritance:
		p.reference("inherit ", n)
	case KindTemplateReference, KindCustomReference:
		p.reference("", n)
	case KindDeletion:
		p.line("delete " + targetList(n.Targets) + ";")
	case KindConstraint:
		p.line("except " + targetList(n.Targets) + ";")
	case KindInsertion:
		head := "insert " + n.Position.String()
		if n.Position.NeedsTarget() && len(n.Targets) > 0 {
			head += " " + n.Targets[0].String()
		}

		p.block(head, n.Children)
	case KindIndexAccess:
		p.block(n.Targets[0].String(), n.Children)
	case KindComment:
		p.line(n.Token.Text)
	case KindUse:
		s := "use " + n.Value
		if n.Name != "" {
			s += " " + n.Name
		}

		p.line(s + ";")
	case KindSpecialization, KindLiteral, KindVariableReference:
		// Written by their enclosing reference or property.
	}
}

func (p *printer) property(n *Node) {
	if n.Value == "" && len(n.Children) == 0 {
		p.line(n.Name + ";")

		return
	}

	sep := ": "
	if n.Equal {
		sep = " = "
	}

	p.line(n.Name + sep + propertySpelling(n) + ";")
}

// propertySpelling returns the value of property n as written, keeping
// variable references unexpanded.
func propertySpelling(n *Node) string {
	if n.Raw != "" {
		return n.Raw
	}

	if len(n.Children) == 0 {
		return n.Value
	}

	var sb strings.Builder

	for i, seg := range n.Children {
		if i > 0 && seg.Token.Lead != "" {
			sb.WriteByte(' ')
		}

		switch seg.Kind {
		case KindLiteral:
			sb.WriteString(seg.Value)
		case KindVariableReference:
			sb.WriteString(seg.Raw)
		}
	}

	return sb.String()
}

func (p *printer) reference(prefix string, n *Node) {
	if n.Kind == KindCustomReference {
		prefix += token.MarkCustom.String() + " "
	}

	head := prefix + n.Def.String() + " " + n.Name
	if n.From != "" {
		head += " from " + n.From
	}

	spec := n.Specialization()
	if spec == nil {
		p.line(head + ";")

		return
	}

	p.block(head, spec.Children)
}

func (p *printer) configuration(n *Node) {
	switch n.Token.Kind {
	case token.MarkName, token.MarkOriginType, token.MarkInfo:
		p.block(n.Token.Kind.String(), n.Children)
	case token.MarkExport:
		p.line(n.Token.Kind.String() + " {")
		p.depth++

		for _, t := range n.Targets {
			p.line(t.String() + ";")
		}

		p.depth--
		p.line("}")
	default:
		head := token.MarkConfiguration.String()
		if n.Name != "" {
			head += " @Config " + n.Name
		}

		p.block(head, n.Children)
	}
}

func importSpelling(n *Node) string {
	s := token.MarkImport.String()

	if len(n.Targets) > 0 {
		s += " " + n.Targets[0].String()
	}

	s += " from " + strconv.Quote(n.From)

	if n.Alias != "" {
		s += " as " + n.Alias
	}

	return s + ";"
}

func targetList(targets []Target) string {
	part := make([]string, len(targets))

	for i, t := range targets {
		part[i] = t.String()
	}

	return strings.Join(part, ", ")
}
