package schema

// Attrs is one overlay: attribute name to value, applied via Field.Apply.
type Attrs = map[string]any

// Registries holds the process-wide attribute overlays. They are expected
// to be populated at startup and treated as immutable afterwards.
//
// Overlay precedence, lowest to highest: canonical field, ColAttrs
// (schema.table.col), ColNameAttrs (column name), ColTypeAttrs (canonical
// type), EngineColTypeAttrs (native type tag). TableAttrs applies at the
// table level before any column overlay.
type Registries struct {
	TableAttrs         map[string]Attrs // keyed "schema.table"
	ColAttrs           map[string]Attrs // keyed "schema.table.col"
	ColNameAttrs       map[string]Attrs // keyed column name
	ColTypeAttrs       map[string]Attrs // keyed canonical type
	EngineColTypeAttrs map[string]Attrs // keyed native type tag, e.g. "tinyint"
}

// NewRegistries creates empty registries.
func NewRegistries() *Registries {
	return &Registries{
		TableAttrs:         map[string]Attrs{},
		ColAttrs:           map[string]Attrs{},
		ColNameAttrs:       map[string]Attrs{},
		ColTypeAttrs:       map[string]Attrs{},
		EngineColTypeAttrs: map[string]Attrs{},
	}
}

// Apply overlays the registries onto a freshly introspected table, in
// precedence order, each overlay overriding what the earlier ones set. The
// type overlays are looked up by the field as the earlier overlays left it,
// so a column or name overlay that changes the type selects which type
// overlay applies.
func (r *Registries) Apply(t *Table) error {
	if r == nil {
		return nil
	}
	if attrs, ok := r.TableAttrs[t.Key()]; ok {
		for _, f := range t.Fields {
			if err := f.Apply(attrs); err != nil {
				return err
			}
		}
	}
	for _, f := range t.Fields {
		if attrs, ok := r.ColAttrs[t.Key()+"."+f.Col]; ok {
			if err := f.Apply(attrs); err != nil {
				return err
			}
		}
		if attrs, ok := r.ColNameAttrs[f.Col]; ok {
			if err := f.Apply(attrs); err != nil {
				return err
			}
		}
		if attrs, ok := r.ColTypeAttrs[string(f.Type)]; ok {
			if err := f.Apply(attrs); err != nil {
				return err
			}
		}
		if attrs, ok := r.EngineColTypeAttrs[f.NativeType]; ok {
			if err := f.Apply(attrs); err != nil {
				return err
			}
		}
	}
	return nil
}
