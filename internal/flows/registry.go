package flows

import (
	"errors"
	"fmt"
)

// ErrUnknownFlow is returned when a flow key or type/variant pair has no definition.
var ErrUnknownFlow = errors.New("unknown flow")

// Registry indexes flows by key and by the (type, variant) pair a submitted
// record declares.
type Registry struct {
	order  []*Flow
	byKey  map[string]*Flow
	byKind map[kind]*Flow
}

type kind struct {
	typ     AppointmentType
	variant Variant
}

// NewRegistry indexes the given flows. Later flows win on key collisions.
func NewRegistry(flows ...*Flow) *Registry {
	r := &Registry{
		byKey:  make(map[string]*Flow, len(flows)),
		byKind: make(map[kind]*Flow, len(flows)),
	}
	for _, f := range flows {
		r.order = append(r.order, f)
		r.byKey[f.Key] = f
		r.byKind[kind{f.Type, f.Variant}] = f
	}
	return r
}

// Default returns the clinic's six booking flows.
func Default() *Registry {
	return NewRegistry(
		newPatientFlow(),
		existingPatientFlow(),
		intakeFormFlow(),
		quickFlow(TypeNew),
		quickFlow(TypeExisting),
		quickFlow(TypeIntake),
	)
}

// All returns the flows in registration order.
func (r *Registry) All() []*Flow {
	return append([]*Flow(nil), r.order...)
}

// Lookup finds a flow by key.
func (r *Registry) Lookup(key string) (*Flow, error) {
	f, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlow, key)
	}
	return f, nil
}

// ForRecord finds the flow whose schema governs a record of the given type
// and variant. An empty variant means standard.
func (r *Registry) ForRecord(typ AppointmentType, variant Variant) (*Flow, error) {
	if variant == "" {
		variant = VariantStandard
	}
	f, ok := r.byKind[kind{typ, variant}]
	if !ok {
		return nil, fmt.Errorf("%w: type %q variant %q", ErrUnknownFlow, typ, variant)
	}
	return f, nil
}
