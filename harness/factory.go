package harness

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vcrobe/nojs-testing/rendertree"
	"github.com/vcrobe/nojs-testing/runtime"
)

// ComponentFactory is the plug-in contract for component activation. A
// factory may return an instance of a different concrete type than
// requested; that is how test doubles stand in for real components without
// the component under test noticing.
type ComponentFactory interface {
	CanCreate(componentType reflect.Type) bool
	Create(componentType reflect.Type) rendertree.Component
}

// FactoryFor builds a factory that answers for component type T with
// instances produced by create.
func FactoryFor[T rendertree.Component](create func() rendertree.Component) ComponentFactory {
	return &typedFactory{
		target: reflect.TypeOf((*T)(nil)).Elem(),
		create: create,
	}
}

type typedFactory struct {
	target reflect.Type
	create func() rendertree.Component
}

func (f *typedFactory) CanCreate(componentType reflect.Type) bool {
	return componentType == f.target
}

func (f *typedFactory) Create(reflect.Type) rendertree.Component {
	return f.create()
}

// Activator resolves concrete component instances. It consults the
// registered factories most-recently-registered first and falls back to
// default activation; every instance it hands out is recorded in the
// component registry.
//
// Activator implements runtime.ComponentActivator, so child components the
// engine mounts flow through the same factory list as roots.
type Activator struct {
	mu        sync.Mutex
	factories []ComponentFactory
	registry  *ComponentRegistry
}

// NewActivator creates an activator backed by the given registry.
func NewActivator(registry *ComponentRegistry, factories ...ComponentFactory) *Activator {
	return &Activator{registry: registry, factories: factories}
}

// RegisterFactory adds a factory; it takes precedence over every factory
// registered before it.
func (a *Activator) RegisterFactory(f ComponentFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.factories = append(a.factories, f)
}

// CreateInstance manufactures an instance for the requested component type.
// The first factory (most recent first) able to produce one wins; otherwise
// the type is default-activated, which requires a pointer-to-struct
// component type.
func (a *Activator) CreateInstance(componentType reflect.Type) (rendertree.Component, error) {
	if instance, ok := a.fromFactories(componentType); ok {
		a.registry.Register(instance)
		return instance, nil
	}

	if componentType.Kind() != reflect.Ptr || componentType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot default-activate component type %s: need a pointer to struct", componentType)
	}
	value := reflect.New(componentType.Elem()).Interface()
	instance, ok := value.(rendertree.Component)
	if !ok {
		return nil, fmt.Errorf("type %s does not implement rendertree.Component", componentType)
	}
	a.registry.Register(instance)
	return instance, nil
}

// Activate implements runtime.ComponentActivator. A prototype whose type a
// factory claims is replaced by the factory's instance, with the
// prototype's props applied when the stand-in accepts them.
func (a *Activator) Activate(proto rendertree.Component) rendertree.Component {
	if instance, ok := a.fromFactories(reflect.TypeOf(proto)); ok {
		if up, ok := instance.(runtime.PropUpdater); ok {
			up.ApplyProps(proto)
		}
		a.registry.Register(instance)
		return instance
	}
	a.registry.Register(proto)
	return proto
}

func (a *Activator) fromFactories(componentType reflect.Type) (rendertree.Component, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.factories) - 1; i >= 0; i-- {
		if a.factories[i].CanCreate(componentType) {
			return a.factories[i].Create(componentType), true
		}
	}
	return nil, false
}
