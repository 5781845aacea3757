package syntax

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

const contextsKey = "contexts"

// header is written before every encoded document. Sublime Text
// requires the version directive.
const header = "%YAML 1.2\n---\n"

// Decode reads a syntax definition document. Aliases are resolved and
// anchors dropped on the way in, so a decoded document carries no
// implicit sharing.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode syntax document: %w", err)
	}
	data = stripDirectives(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty syntax document")
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode syntax document: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("empty syntax document")
		}
		node = node.Content[0]
	}
	node = deref(node)
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("syntax document must be a mapping, not %s", kindName(node.Kind))
	}

	doc := &Document{
		Contexts: map[string]Rules{},
		meta:     map[string]*yaml.Node{},
	}
	haveContexts := false
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		doc.keys = append(doc.keys, key)
		if key != contextsKey {
			doc.meta[key] = detach(node.Content[i+1])
			continue
		}
		haveContexts = true
		value := deref(node.Content[i+1])
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%q must be a mapping, not %s", contextsKey, kindName(value.Kind))
		}
		for j := 0; j < len(value.Content); j += 2 {
			name := value.Content[j].Value
			rules, err := decodeRules(deref(value.Content[j+1]))
			if err != nil {
				return nil, fmt.Errorf("context %q: %w", name, err)
			}
			doc.Contexts[name] = rules
		}
	}
	if !haveContexts {
		return nil, fmt.Errorf("syntax document has no top-level %q key", contextsKey)
	}
	return doc, nil
}

// stripDirectives removes leading %-directive lines. The YAML library
// rejects any version directive other than 1.1, but every
// sublime-syntax file opens with %YAML 1.2; the codec writes that
// header back itself on encode.
func stripDirectives(data []byte) []byte {
	for len(data) > 0 && data[0] == '%' {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			return nil
		}
		data = data[nl+1:]
	}
	return data
}

// Encode writes the document with the fixed version header. Repeated
// structures are always written out in full; the encoder never emits
// anchors or aliases.
func Encode(w io.Writer, doc *Document) error {
	root, err := doc.yamlNode()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		enc.Close()
		return fmt.Errorf("encode syntax document: %w", err)
	}
	return enc.Close()
}

func decodeRules(n *yaml.Node) (Rules, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("rules must be a sequence, not %s", kindName(n.Kind))
	}
	rules := make(Rules, 0, len(n.Content))
	for _, item := range n.Content {
		rule, err := decodeRule(deref(item))
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRule(n *yaml.Node) (Rule, error) {
	var rule Rule
	if n.Kind != yaml.MappingNode {
		return rule, fmt.Errorf("rule must be a mapping, not %s", kindName(n.Kind))
	}
	for i := 0; i < len(n.Content); i += 2 {
		key := n.Content[i].Value
		value := deref(n.Content[i+1])
		rule.keys = append(rule.keys, key)
		var err error
		switch key {
		case "include":
			err = value.Decode(&rule.Include)
		case "match":
			err = value.Decode(&rule.Match)
		case "embed":
			err = value.Decode(&rule.Embed)
		case "branch_point":
			err = value.Decode(&rule.BranchPoint)
		case "branch":
			err = value.Decode(&rule.Branch)
		case "fail":
			err = value.Decode(&rule.Fail)
		case "push":
			rule.Push, err = decodeTarget(value)
		case "set":
			rule.Set, err = decodeTarget(value)
		default:
			rule.Extra = append(rule.Extra, Field{Key: key, Value: detach(n.Content[i+1])})
		}
		if err != nil {
			return rule, fmt.Errorf("%s: %w", key, err)
		}
	}
	return rule, nil
}

func decodeTarget(n *yaml.Node) (Target, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		var name string
		if err := n.Decode(&name); err != nil {
			return nil, err
		}
		return Ref(name), nil
	case yaml.SequenceNode:
		names := true
		for _, item := range n.Content {
			if deref(item).Kind != yaml.ScalarNode {
				names = false
				break
			}
		}
		if names {
			out := make(List, len(n.Content))
			for i, item := range n.Content {
				out[i] = deref(item).Value
			}
			return out, nil
		}
		out := make(Inline, 0, len(n.Content))
		for _, item := range n.Content {
			rule, err := decodeRule(deref(item))
			if err != nil {
				return nil, err
			}
			out = append(out, rule)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a context name, a list of names or inline rules, not %s", kindName(n.Kind))
}

func (d *Document) yamlNode() (*yaml.Node, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range d.keys {
		var value *yaml.Node
		if key == contextsKey {
			var err error
			value, err = contextMapNode(d.Contexts)
			if err != nil {
				return nil, err
			}
		} else {
			value = d.meta[key]
		}
		root.Content = append(root.Content, strNode(key), value)
	}
	return root, nil
}

// contextMapNode emits contexts sorted by name, matching the stable
// key order the previous generator produced.
func contextMapNode(contexts map[string]Rules) (*yaml.Node, error) {
	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range names {
		rules, err := contexts[name].yamlNode()
		if err != nil {
			return nil, fmt.Errorf("context %q: %w", name, err)
		}
		node.Content = append(node.Content, strNode(name), rules)
	}
	return node, nil
}

func (rs Rules) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, rule := range rs {
		rn, err := rule.yamlNode()
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, rn)
	}
	return node, nil
}

func (r Rule) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range r.fieldOrder() {
		value, ok, err := r.fieldNode(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		node.Content = append(node.Content, strNode(key), value)
	}
	return node, nil
}

// fieldOrder returns the keys to emit for this rule: the decoded key
// order when the rule came from an input document, or a canonical
// order for synthesized rules.
func (r Rule) fieldOrder() []string {
	if r.keys != nil {
		return r.keys
	}
	keys := make([]string, 0, 8+len(r.Extra))
	if r.Include != "" {
		keys = append(keys, "include")
	}
	if r.Match != "" {
		keys = append(keys, "match")
	}
	if r.Embed != "" {
		keys = append(keys, "embed")
	}
	if r.BranchPoint != "" {
		keys = append(keys, "branch_point")
	}
	if len(r.Branch) > 0 {
		keys = append(keys, "branch")
	}
	if r.Fail != "" {
		keys = append(keys, "fail")
	}
	if r.Push != nil {
		keys = append(keys, "push")
	}
	if r.Set != nil {
		keys = append(keys, "set")
	}
	for _, f := range r.Extra {
		keys = append(keys, f.Key)
	}
	return keys
}

// fieldNode emits the current value of one key named by fieldOrder.
// Known fields are emitted unconditionally, even when zero: the key's
// presence in fieldOrder means the input document carried it, and an
// explicitly empty value must survive the round trip.
func (r Rule) fieldNode(key string) (*yaml.Node, bool, error) {
	switch key {
	case "include":
		return strNode(r.Include), true, nil
	case "match":
		return strNode(r.Match), true, nil
	case "embed":
		return strNode(r.Embed), true, nil
	case "branch_point":
		return strNode(r.BranchPoint), true, nil
	case "branch":
		return strListNode(r.Branch), true, nil
	case "fail":
		return strNode(r.Fail), true, nil
	case "push":
		return targetNode(r.Push)
	case "set":
		return targetNode(r.Set)
	}
	for _, f := range r.Extra {
		if f.Key == key {
			return f.Value, true, nil
		}
	}
	return nil, false, nil
}

func targetNode(t Target) (*yaml.Node, bool, error) {
	switch t := t.(type) {
	case nil:
		return nil, false, nil
	case Ref:
		return strNode(string(t)), true, nil
	case List:
		return strListNode(t), true, nil
	case Inline:
		node, err := Rules(t).yamlNode()
		return node, true, err
	}
	return nil, false, fmt.Errorf("unsupported push/set operand %T", t)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func strListNode(ss []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range ss {
		node.Content = append(node.Content, strNode(s))
	}
	return node
}

// BoolNode returns a scalar node holding a YAML boolean, for opaque
// fields built by the generator.
func BoolNode(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

// deref follows alias nodes to the anchored node they reference.
func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// detach deep-copies a node, resolving aliases and dropping anchors so
// re-encoding writes every repeated structure out in full.
func detach(n *yaml.Node) *yaml.Node {
	n = deref(n)
	out := *n
	out.Anchor = ""
	out.Alias = nil
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = detach(c)
		}
	}
	return &out
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "a document"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	}
	return "an unknown node"
}
