package effects

import (
	"sort"

	"bindmeta-go/packages/compiler/src/binding_parser"
	"bindmeta-go/packages/compiler/src/output"
)

// ElementValue converts a compacted element into the canonical value model.
// Fields holding their default value are omitted.
func (c *Compactor) ElementValue(el *Element) *output.Object {
	obj := output.NewObject()
	if effects := c.TableValue(el.PropertyEffects); effects.Len() > 0 {
		obj.Set("propertyEffects", effects)
	}
	if el.TemplateInfo != nil {
		obj.Set("templateInfo", c.TemplateValue(el.TemplateInfo))
	}
	if len(el.ObserverArgCache) > 0 {
		cache := output.NewObject()
		keys := el.ObserverArgCache.Keys()
		sort.SliceStable(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) < len(keys[j])
			}
			return keys[i] < keys[j]
		})
		for _, key := range keys {
			cache.Set(key, argsValue(el.ObserverArgCache[key]))
		}
		obj.Set("argCache", cache)
	}
	return obj
}

// TableValue converts an effect table, categories in fixed order and
// properties sorted
func (c *Compactor) TableValue(table EffectTable) *output.Object {
	obj := output.NewObject()
	for _, cat := range Categories {
		effects := table[cat]
		if len(effects) == 0 {
			continue
		}
		byProp := output.NewObject()
		for _, prop := range effects.Properties() {
			records := output.NewArray()
			for _, rec := range effects[prop] {
				records.Append(c.RecordValue(rec))
			}
			byProp.Set(prop, records)
		}
		obj.Set(cat.String(), byProp)
	}
	return obj
}

// RecordValue converts one effect record
func (c *Compactor) RecordValue(rec *EffectRecord) *output.Object {
	obj := output.NewObject()
	if rec.Trigger != nil {
		trigger := output.NewObject().Set("name", output.String(rec.Trigger.Name))
		if rec.Trigger.Structured {
			trigger.Set("structured", output.Bool(true))
		}
		if rec.Trigger.Wildcard {
			trigger.Set("wildcard", output.Bool(true))
		}
		obj.Set("trigger", trigger)
	}
	obj.Set("fn", c.fnValue(rec.Fn))
	if rec.Info != nil {
		if info := infoValue(rec.Info); info.Len() > 0 {
			obj.Set("info", info)
		}
	}
	return obj
}

func (c *Compactor) fnValue(fn FnRef) output.Value {
	if fn.Resolved() {
		return output.Ref{Namespace: c.registry.Namespace(), Name: fn.Kind.Token()}
	}
	if fn.Raw == "" {
		return output.Null{}
	}
	return output.String(fn.Raw)
}

func infoValue(info *EffectInfo) *output.Object {
	obj := output.NewObject()
	if info.MethodName != "" {
		obj.Set("methodName", output.String(info.MethodName))
	}
	if len(info.Args) > 0 {
		obj.Set("args", argsValue(info.Args))
	}
	if info.MethodInfo != "" {
		obj.Set("methodInfo", output.String(info.MethodInfo))
	}
	if info.DynamicFn {
		obj.Set("dynamicFn", output.Bool(true))
	}
	if info.CacheName != "" {
		obj.Set("cacheName", output.String(info.CacheName))
	}
	if info.Property != "" {
		obj.Set("property", output.String(info.Property))
	}
	if info.Index != nil {
		obj.Set("index", output.Number(*info.Index))
	}
	if info.Binding != nil {
		obj.Set("binding", output.Number(*info.Binding))
	}
	if info.Part != nil {
		obj.Set("part", output.Number(*info.Part))
	}
	return obj
}

func argsValue(args []*EffectArg) *output.Array {
	arr := output.NewArray()
	for _, arg := range args {
		arr.Append(argValue(arg))
	}
	return arr
}

func argValue(arg *EffectArg) *output.Object {
	obj := output.NewObject().Set("name", output.String(arg.Name))
	if arg.Literal {
		obj.Set("value", literalValue(arg.Value))
		obj.Set("literal", output.Bool(true))
	}
	if arg.Structured {
		obj.Set("structured", output.Bool(true))
	}
	if arg.Wildcard {
		obj.Set("wildcard", output.Bool(true))
	}
	if arg.RootProperty != "" {
		obj.Set("rootProperty", output.String(arg.RootProperty))
	}
	return obj
}

func literalValue(v interface{}) output.Value {
	switch val := v.(type) {
	case string:
		return output.String(val)
	case float64:
		return output.Number(val)
	case int:
		return output.Number(val)
	case bool:
		return output.Bool(val)
	}
	return output.Null{}
}

// TemplateValue converts a template and its nested templates
func (c *Compactor) TemplateValue(info *TemplateInfo) *output.Object {
	obj := output.NewObject()
	if info.Content != "" {
		obj.Set("content", output.Fragment{Constructor: c.fragmentCtor, Markup: info.Content})
	}
	if effects := c.TableValue(info.PropertyEffects); effects.Len() > 0 {
		obj.Set("propertyEffects", effects)
	}
	if len(info.NodeInfoList) > 0 {
		nodes := output.NewArray()
		for _, node := range info.NodeInfoList {
			nodes.Append(c.nodeValue(node))
		}
		obj.Set("nodeInfoList", nodes)
	}
	return obj
}

func (c *Compactor) nodeValue(node *NodeInfo) *output.Object {
	obj := output.NewObject()
	if len(node.Bindings) > 0 {
		bindings := output.NewArray()
		for _, b := range node.Bindings {
			bindings.Append(nodeBindingValue(b))
		}
		obj.Set("bindings", bindings)
	}
	if node.TemplateInfo != nil {
		obj.Set("templateInfo", c.TemplateValue(node.TemplateInfo))
	}
	return obj
}

func nodeBindingValue(b *NodeBinding) *output.Object {
	obj := output.NewObject().Set("kind", output.String(b.Kind))
	if b.Target != "" {
		obj.Set("target", output.String(b.Target))
	}
	if len(b.Parts) > 0 {
		parts := output.NewArray()
		for _, part := range b.Parts {
			parts.Append(PartValue(part))
		}
		obj.Set("parts", parts)
	}
	return obj
}

// PartValue converts a scanned binding part
func PartValue(part binding_parser.BindingPart) *output.Object {
	obj := output.NewObject()
	switch p := part.(type) {
	case *binding_parser.LiteralPart:
		obj.Set("literal", output.String(p.Text))
	case *binding_parser.Binding:
		obj.Set("mode", output.String(p.Mode.Delimiter()))
		if p.TargetPath != "" {
			obj.Set("source", output.String(p.TargetPath))
		}
		if p.Negate {
			obj.Set("negate", output.Bool(true))
		}
		if p.CustomEvent != "" {
			obj.Set("customEvent", output.String(p.CustomEvent))
		}
		if sig := p.Signature; sig != nil {
			s := output.NewObject().Set("methodName", output.String(sig.MethodName))
			if len(sig.Args) > 0 {
				args := output.NewArray()
				for _, arg := range sig.Args {
					args.Append(argValue(stripArg(ArgFromBinding(arg))))
				}
				s.Set("args", args)
			}
			if sig.IsStatic {
				s.Set("static", output.Bool(true))
			}
			obj.Set("signature", s)
		}
		deps := output.NewArray()
		for _, dep := range p.Dependencies {
			deps.Append(output.String(dep))
		}
		obj.Set("dependencies", deps)
	}
	return obj
}
